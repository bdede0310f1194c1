package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/shouni/go-swipe-art-kit/internal/builder"
	"github.com/shouni/go-swipe-art-kit/internal/config"
	"github.com/shouni/go-swipe-art-kit/internal/runner"
	"github.com/shouni/go-swipe-art-kit/pkg/analysis"
	"github.com/shouni/go-swipe-art-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Execute は、スワイプセッションJSONを読み込み、
// 解析 → 好み抽出 → プロンプト合成 → 生成カスケード → 保存 の全工程を実行するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.SetupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	session, err := loadSession(ctx, appCtx.Reader, cfg.Options.SessionFile)
	if err != nil {
		return err
	}

	// 解析器はAPIキー未設定だと構築できないが、生成はローカル手段で続行できるのだ
	analyzer, err := builder.BuildAnalyzer(appCtx)
	if err != nil {
		slog.WarnContext(ctx, "解析器なしで続行するのだ", "reason", err)
		analyzer = nil
	}

	generator, err := builder.BuildCascade(appCtx)
	if err != nil {
		return err
	}

	sessionRunner := runner.NewSwipeSessionRunner(
		analyzer,
		builder.BuildSynthesizer(appCtx),
		generator,
		appCtx.Writer,
		cfg.Options,
	)

	result, err := sessionRunner.Run(ctx, *session)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "作品生成が完了したのだ！", "backend", result.Backend, "prompt", result.Prompt)
	return nil
}

// ExecuteAnalyzeOnly は、セッション内の画像URLを一括解析して評価結果JSONを保存するのだ。
// 生成工程は実行しない。解析にはAIクライアントが必須なのだ。
func ExecuteAnalyzeOnly(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.SetupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	session, err := loadSession(ctx, appCtx.Reader, cfg.Options.SessionFile)
	if err != nil {
		return err
	}

	analyzer, err := builder.BuildAnalyzer(appCtx)
	if err != nil {
		return err
	}

	var refs []analysis.ImageRef
	for _, o := range session.Outcomes {
		if o.ImageURL == "" {
			continue
		}
		refs = append(refs, analysis.ImageRef{
			ImageID:   o.ImageID,
			URL:       o.ImageURL,
			Direction: o.Direction,
		})
	}
	if len(refs) == 0 {
		return fmt.Errorf("解析対象の画像URLがセッションに含まれていないのだ: %s", cfg.Options.SessionFile)
	}

	evals, err := analyzer.AnalyzeBatch(ctx, refs)
	if err != nil {
		return fmt.Errorf("画像のバッチ解析に失敗したのだ: %w", err)
	}

	data, err := json.MarshalIndent(evals, "", "  ")
	if err != nil {
		return fmt.Errorf("評価結果のエンコードに失敗したのだ: %w", err)
	}

	outputPath := path.Join(cfg.Options.OutputDir, "evaluations.json")
	if err := appCtx.Writer.Write(ctx, outputPath, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("評価結果の保存に失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "バッチ解析が完了したのだ！", "count", len(evals), "output", outputPath)
	return nil
}

// loadSession はローカルまたは gs:// 上のセッションJSONを読み込むのだ。
func loadSession(ctx context.Context, reader remoteio.InputReader, sessionPath string) (*domain.SwipeSession, error) {
	rc, err := reader.Open(ctx, sessionPath)
	if err != nil {
		return nil, fmt.Errorf("セッションファイル '%s' の読み込みに失敗しました: %w", sessionPath, err)
	}
	defer rc.Close()

	var session domain.SwipeSession
	if err := json.NewDecoder(rc).Decode(&session); err != nil {
		return nil, fmt.Errorf("セッションファイル '%s' のデコードに失敗しました: %w", sessionPath, err)
	}
	return &session, nil
}
