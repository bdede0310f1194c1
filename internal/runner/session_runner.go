package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/shouni/go-swipe-art-kit/internal/config"
	"github.com/shouni/go-swipe-art-kit/pkg/analysis"
	"github.com/shouni/go-swipe-art-kit/pkg/cascade"
	"github.com/shouni/go-swipe-art-kit/pkg/domain"
	"github.com/shouni/go-swipe-art-kit/pkg/preference"
	"github.com/shouni/go-swipe-art-kit/pkg/promptsynth"

	"github.com/google/uuid"
)

// SessionRunner は、スワイプセッション1件から1枚の作品を生成するためのインターフェース。
type SessionRunner interface {
	// Run はセッション全体のパイプライン（解析 → 好み抽出 → 合成 → 生成 → 保存）を実行する。
	Run(ctx context.Context, session domain.SwipeSession) (*domain.GenerationResult, error)
}

// ArtifactWriter は生成物（画像と根拠テキスト）の保存先です。
// remoteio.OutputWriter がこのインターフェースを満たします。
type ArtifactWriter interface {
	Write(ctx context.Context, path string, reader io.Reader, contentType string) error
}

// SwipeSessionRunner は、解析・合成・生成カスケードを順に駆動する実体。
type SwipeSessionRunner struct {
	analyzer    *analysis.Analyzer       // リモート画像解析（APIキー未設定時は nil）
	synthesizer *promptsynth.Synthesizer // 好みからのプロンプト合成
	generator   *cascade.Cascade         // 多段バックエンドの生成カスケード
	writer      ArtifactWriter           // 成果物（画像と根拠テキスト）の保存先
	catalog     []domain.ModelDescriptor // 選択可能なモデルのカタログ
	opts        config.GenerateOptions
}

// NewSwipeSessionRunner は、SwipeSessionRunnerの新しいインスタンスを生成して返す。
// analyzer は nil を許容する（その場合、URLのみの結果は解析されずスキップされる）。
func NewSwipeSessionRunner(
	analyzer *analysis.Analyzer,
	synthesizer *promptsynth.Synthesizer,
	generator *cascade.Cascade,
	writer ArtifactWriter,
	opts config.GenerateOptions,
) *SwipeSessionRunner {
	return &SwipeSessionRunner{
		analyzer:    analyzer,
		synthesizer: synthesizer,
		generator:   generator,
		writer:      writer,
		catalog:     domain.DefaultCatalog(),
		opts:        opts,
	}
}

// Run はセッションのスワイプ記録から作品を1枚生成し、保存して返すのだ。
func (r *SwipeSessionRunner) Run(ctx context.Context, session domain.SwipeSession) (*domain.GenerationResult, error) {
	liked, err := r.collectPreferences(ctx, session)
	if err != nil {
		return nil, err
	}

	synth := r.synthesizer.Synthesize(ctx, liked)
	slog.InfoContext(ctx, "プロンプト合成が完了したのだ", "prompt", synth.Prompt, "style", synth.Style, "mood", synth.Mood)

	model, ok := domain.FindModel(r.catalog, r.opts.ImageModel)
	if !ok {
		return nil, fmt.Errorf("未知のモデル名なのだ: %q", r.opts.ImageModel)
	}

	req := domain.GenerationRequest{
		Prompt:         synth.Prompt,
		NegativePrompt: synth.NegativePrompt,
		AspectRatio:    r.opts.AspectRatio,
		Model:          model,
	}

	result, err := r.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// 合成の根拠と生成経路の根拠を1つの説明文にまとめるのだ
	result.Rationale = strings.TrimSpace(synth.Rationale + " " + result.Rationale)

	if err := r.persist(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// collectPreferences は、解析済みテキストと未解析URLの両方から「好み」の記述を集めるのだ。
func (r *SwipeSessionRunner) collectPreferences(ctx context.Context, session domain.SwipeSession) ([]string, error) {
	liked := preference.LikedFromOutcomes(session.Outcomes)

	var refs []analysis.ImageRef
	for _, o := range session.Outcomes {
		if o.AnalysisText == "" && o.ImageURL != "" {
			refs = append(refs, analysis.ImageRef{
				ImageID:   o.ImageID,
				URL:       o.ImageURL,
				Direction: o.Direction,
			})
		}
	}

	if len(refs) == 0 {
		return liked, nil
	}
	if r.analyzer == nil {
		slog.WarnContext(ctx, "解析器が無効なため、未解析の画像URLをスキップするのだ", "count", len(refs))
		return liked, nil
	}

	evals, err := r.analyzer.AnalyzeBatch(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("画像のバッチ解析に失敗したのだ: %w", err)
	}
	return append(liked, preference.LikedDescriptions(evals)...), nil
}

// persist は、画像本体と根拠テキストを同じベース名で保存するのだ。
func (r *SwipeSessionRunner) persist(ctx context.Context, result *domain.GenerationResult) error {
	baseName := "artwork_" + uuid.NewString()

	imagePath := path.Join(r.opts.OutputDir, baseName+extensionForMime(result.MimeType))
	if err := r.writer.Write(ctx, imagePath, bytes.NewReader(result.Data), result.MimeType); err != nil {
		return fmt.Errorf("生成画像の保存に失敗したのだ: %w", err)
	}

	rationalePath := path.Join(r.opts.OutputDir, baseName+".txt")
	note := fmt.Sprintf("Prompt: %s\nBackend: %s\nRationale: %s\n", result.Prompt, result.Backend, result.Rationale)
	if err := r.writer.Write(ctx, rationalePath, strings.NewReader(note), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("根拠テキストの保存に失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "作品の保存が完了したのだ！", "image", imagePath, "rationale", rationalePath, "backend", result.Backend)
	return nil
}

// extensionForMime は MIME タイプから保存時の拡張子を決めるのだ。
func extensionForMime(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "png"):
		return ".png"
	case strings.Contains(mimeType, "jpeg"), strings.Contains(mimeType, "jpg"):
		return ".jpg"
	case strings.Contains(mimeType, "webp"):
		return ".webp"
	default:
		return ".bin"
	}
}
