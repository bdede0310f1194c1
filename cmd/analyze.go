package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-swipe-art-kit/internal/config"
	"github.com/shouni/go-swipe-art-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// analyzeCmd は、セッション内の画像URLだけを一括解析するユーティリティコマンドなのだ。
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "セッション内の画像URLを一括解析して、評価結果JSONを保存するのだ。",
	Long: `画像生成は行わず、スワイプセッションに含まれる画像URLをまとめて解析し、
評価テキスト付きの結果を evaluations.json として保存するのだ。
解析済みのセッションは generate コマンドでそのまま再利用できるのだよ。`,
	Example: "  swipe-art analyze -f examples/swipe_session.json -o output/artworks",
	RunE:    analyzeCommand,
	PreRunE: preRunAnalyzeE,
}

func init() {
}

// preRunAnalyzeE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAnalyzeE(cmd *cobra.Command, args []string) error {
	// 解析はリモート呼び出しが本体なので、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。画像解析には必須なのだ")
	}
	return nil
}

// analyzeCommand は、analyze サブコマンドの実行ロジック本体なのだ。
func analyzeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("バッチ解析を開始するのだ！", "session", opts.SessionFile, "model", cfg.AnalysisModel)

	if err := pipeline.ExecuteAnalyzeOnly(ctx, cfg); err != nil {
		return fmt.Errorf("バッチ解析中にエラーが発生したのだ: %w", err)
	}
	return nil
}
