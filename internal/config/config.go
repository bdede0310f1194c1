package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultAnalysisModel    = "gemini-2.5-flash"
	DefaultSynthesisModel   = "gemini-2.5-flash"
	DefaultImageModel       = "gemini-native-image"    // カタログ上のモデル名（--image-model のデフォルト）
	DefaultNativeImageModel = "gemini-2.5-flash-image" // ネイティブバックエンドがAPIに渡す実モデル名
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultCacheTTL         = 30 * time.Minute

	// 解析パスのレートガード（ブロッキング方式）なのだ
	DefaultAnalysisWindow = time.Minute
	DefaultAnalysisLimit  = 15

	// 生成パスのレートガード（即時拒否方式）なのだ
	DefaultGenerationWindow = time.Hour
	DefaultGenerationLimit  = 20

	DefaultAspectRatio = "1:1"
	DefaultSessionFile = "examples/swipe_session.json" // generate コマンドが読むスワイプ記録のデフォルトパス
	DefaultOutputDir   = "output/artworks"             // 生成画像と根拠テキストの保存先なのだ
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	ReplicateAPIKey  string
	AnalysisModel    string
	SynthesisModel   string
	NativeImageModel string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		ReplicateAPIKey:  envutil.GetEnv("REPLICATE_API_TOKEN", ""),
		AnalysisModel:    envutil.GetEnv("ANALYSIS_GEMINI_MODEL", DefaultAnalysisModel),
		SynthesisModel:   envutil.GetEnv("SYNTHESIS_GEMINI_MODEL", DefaultSynthesisModel),
		NativeImageModel: envutil.GetEnv("NATIVE_IMAGE_GEMINI_MODEL", DefaultNativeImageModel),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	SessionFile string // --session-file
	OutputDir   string // --output-dir

	// 生成挙動設定
	ImageModel  string // --image-model: 画像生成モデルのカタログ名
	AspectRatio string // --aspect-ratio

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}
