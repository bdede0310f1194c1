package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-swipe-art-kit/internal/config"
	"github.com/shouni/go-swipe-art-kit/pkg/analysis"
	"github.com/shouni/go-swipe-art-kit/pkg/backend"
	"github.com/shouni/go-swipe-art-kit/pkg/backend/geminigen"
	"github.com/shouni/go-swipe-art-kit/pkg/backend/replicate"
	"github.com/shouni/go-swipe-art-kit/pkg/cascade"
	"github.com/shouni/go-swipe-art-kit/pkg/procedural"
	"github.com/shouni/go-swipe-art-kit/pkg/promptsynth"
	"github.com/shouni/go-swipe-art-kit/pkg/rateguard"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"google.golang.org/genai"
)

// SetupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
// GEMINI_API_KEY が未設定の場合でもエラーにはせず、AIクライアントを nil のまま構築するのだ
// （プロンプト合成と画像生成はローカル手段へフォールバックできるため）。
func SetupAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := httpkit.New(timeout)

	var aiClient gemini.GenerativeModel
	if cfg.GeminiAPIKey != "" && !backend.IsPlaceholder(cfg.GeminiAPIKey) {
		var err error
		aiClient, err = InitializeAIClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create ai client: %w", err)
		}
	} else {
		slog.WarnContext(ctx, "GEMINI_API_KEY が未設定のため、解析・合成・ネイティブ生成はローカル手段に限定されるのだ")
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	appCtx := NewAppContext(cfg, httpClient, aiClient, reader, writer)
	return &appCtx, nil
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	const defaultGeminiTemperature = float32(0.2)
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// BuildAnalyzer は画像解析コンポーネントを構築します。
// 解析パスはリモート呼び出しが本体のため、AIクライアントは必須なのだ。
func BuildAnalyzer(appCtx *AppContext) (*analysis.Analyzer, error) {
	if appCtx.aiClient == nil {
		return nil, fmt.Errorf("画像解析には GEMINI_API_KEY の設定が必要なのだ")
	}

	textCache := gocache.New(config.DefaultCacheTTL, time.Hour)
	guard := rateguard.NewBlocking(config.DefaultAnalysisWindow, config.DefaultAnalysisLimit)

	return analysis.NewAnalyzer(
		appCtx.aiClient,
		appCtx.httpClient,
		textCache,
		guard,
		appCtx.Config.AnalysisModel,
		config.DefaultCacheTTL,
	)
}

// BuildSynthesizer はプロンプト合成コンポーネントを構築します。
// AIクライアントが nil の場合、合成はキーワード抽出とテンプレートのみで動作します。
func BuildSynthesizer(appCtx *AppContext) *promptsynth.Synthesizer {
	return promptsynth.NewSynthesizer(appCtx.aiClient, appCtx.Config.SynthesisModel)
}

// BuildCascade は生成カスケード（ネイティブ → 非同期ジョブ → ローカル合成）を構築します。
// ローカル合成は常に登録されるため、構築に成功すれば生成は必ず終端します。
func BuildCascade(appCtx *AppContext) (*cascade.Cascade, error) {
	opts := cascade.Options{
		Local:    procedural.NewSynthesizer(),
		Guard:    rateguard.NewRejecting(config.DefaultGenerationWindow, config.DefaultGenerationLimit),
		Registry: map[string]backend.Backend{},
	}

	if appCtx.aiClient != nil {
		native, err := geminigen.New(appCtx.aiClient, appCtx.Config.NativeImageModel, appCtx.Config.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("ネイティブバックエンドの初期化に失敗したのだ: %w", err)
		}
		opts.Native = native
	}

	repl, err := replicate.New(replicate.Options{
		APIKey:  appCtx.Config.ReplicateAPIKey,
		Fetcher: appCtx.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("非同期ジョブバックエンドの初期化に失敗したのだ: %w", err)
	}
	opts.Registry[replicate.BackendName] = repl

	return cascade.New(opts)
}
