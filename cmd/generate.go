package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-swipe-art-kit/internal/config"
	"github.com/shouni/go-swipe-art-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、スワイプセッションから作品1枚を生成するメインコマンドなのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "スワイプセッションから好みを抽出し、作品を1枚生成するのだ。",
	Long: `セッションJSONのスワイプ記録を解析して「好き」の傾向を取り出し、
プロンプトを合成してから、ネイティブ → 非同期ジョブ → ローカル合成の順で
画像生成を試みるのだ。どのリモートも使えない場合でもローカル合成が必ず描くのだよ。`,
	Example: "  swipe-art generate -f examples/swipe_session.json -o output/artworks",
	RunE:    generateCommand,
}

func init() {
}

// generateCommand は、generate サブコマンドの実行ロジック本体なのだ。
func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック（念のためなのだ）
	if opts.SessionFile == "" {
		return fmt.Errorf("読み込むセッションJSON（--session-file）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("作品生成パイプラインを起動するのだ！",
		"session", opts.SessionFile,
		"image_model", opts.ImageModel,
		"output", opts.OutputDir)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	if err := pipeline.Execute(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
