package cmd

import (
	"context"
	"os"

	"github.com/shouni/go-swipe-art-kit/internal/config"

	"github.com/spf13/cobra"
)

// opts は各サブコマンドが共有する実行時パラメータなのだ。
var opts config.GenerateOptions

// rootCmd は、すべてのサブコマンドの親となるコマンドなのだ。
var rootCmd = &cobra.Command{
	Use:   "swipe-art",
	Short: "スワイプで集めた好みから、1枚のアート作品を生成するCLIなのだ",
	Long: `スワイプセッション（好き／嫌いの記録）を読み込み、画像の解析と好みの抽出、
プロンプト合成、多段バックエンドでの画像生成までを一気通貫で実行するのだ。
リモートAPIが使えない環境でも、ローカル合成によって必ず1枚は生成されるのだよ。`,
	SilenceUsage: true,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.SessionFile, "session-file", "f", config.DefaultSessionFile, "スワイプセッションJSONのパス（ローカル or gs://...）なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成物を保存するディレクトリ（ローカル or gs://...）なのだ。")

	// --- 生成挙動設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ImageModel, "image-model", "m", config.DefaultImageModel, "使用する画像生成モデルのカタログ名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.AspectRatio, "aspect-ratio", config.DefaultAspectRatio, "生成画像のアスペクト比なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, analyzeCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
