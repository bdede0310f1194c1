package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

const (
	// maxConcurrentAnalysis はバッチ解析の同時実行上限です。
	maxConcurrentAnalysis = 3
	// interChunkDelay はチャンク間の固定待機です。
	interChunkDelay = 500 * time.Millisecond
)

// AnalyzeBatch は画像の集合をチャンク単位の並列ファンアウトで解析します。
// 同時実行は3件まで、チャンク間には固定の待機を挟みます。
// 1枚の失敗はバッチ全体を止めず、当該画像をスキップしてログに残します。
// 返り値のタイムスタンプはセッション内で単調非減少です。
func (a *Analyzer) AnalyzeBatch(ctx context.Context, refs []ImageRef) ([]domain.EvaluationResult, error) {
	texts := make([]string, len(refs))
	failed := make([]bool, len(refs))

	// チャンク間の流量制限（manga-kit と同じ x/time ベースのペーシング）
	limiter := rate.NewLimiter(rate.Every(interChunkDelay), 1)
	slog.Info("バッチ解析を開始します", "count", len(refs), "parallel", maxConcurrentAnalysis)

	for start := 0; start < len(refs); start += maxConcurrentAnalysis {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		end := min(start+maxConcurrentAnalysis, len(refs))
		eg, egCtx := errgroup.WithContext(ctx)

		for i := start; i < end; i++ {
			i := i
			eg.Go(func() error {
				text, err := a.AnalyzeImage(egCtx, refs[i])
				if err != nil {
					// 1枚の失敗でバッチ全体を巻き込まない
					slog.Warn("画像解析に失敗したためスキップします",
						"image_id", refs[i].ImageID, "error", err)
					failed[i] = true
					return nil
				}
				texts[i] = text
				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	// タイムスタンプの付与は単一のゴルーチンで順番に行う（単調非減少の保証）
	results := make([]domain.EvaluationResult, 0, len(refs))
	ts := a.now()
	for i, ref := range refs {
		if failed[i] {
			continue
		}
		results = append(results, domain.EvaluationResult{
			ID:           uuid.NewString(),
			ImageID:      ref.ImageID,
			Direction:    ref.Direction,
			AnalysisText: texts[i],
			Timestamp:    ts,
		})
		ts = ts.Add(time.Microsecond)
	}

	slog.Info("バッチ解析が完了しました", "succeeded", len(results), "total", len(refs))
	return results, nil
}
