// Package promptsynth はスワイプ評価から画像生成プロンプトを合成します。
// リモートLM → 品質行ヒューリスティック → ローカルキーワード抽出 → 定型テンプレート
// の順に劣化しながらも、呼び出し元へは常に非空のプロンプトを返します。
package promptsynth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

const (
	// genericPrompt は好みの記述が1件もない場合に使う汎用プロンプトです。
	genericPrompt = "A beautiful high-quality digital artwork, detailed, masterpiece, harmonious composition"

	qualitySuffix = "high quality, detailed, masterpiece"
)

// Result はプロンプト合成の最終結果です。Prompt は常に非空です。
type Result struct {
	Prompt         string
	NegativePrompt string
	Rationale      string
	Style          string
	Mood           string
}

// Synthesizer は好みの記述からプロンプトを合成するコンポーネントです。
type Synthesizer struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewSynthesizer は依存関係を注入して Synthesizer を初期化します。
// aiClient に nil を渡すとリモート合成をスキップしてローカル抽出のみで動作します。
func NewSynthesizer(aiClient gemini.GenerativeModel, model string) *Synthesizer {
	return &Synthesizer{aiClient: aiClient, model: model}
}

// Synthesize は好みの記述からプロンプトと根拠を合成します。
// どの経路が失敗しても非空のプロンプトを返します。呼び出し元が合成失敗を
// 観測することはなく、品質の劣化のみが起こります。
func (s *Synthesizer) Synthesize(ctx context.Context, likedDescriptions []string) Result {
	if len(likedDescriptions) == 0 {
		return Result{
			Prompt:    genericPrompt,
			Rationale: "No strong preference was found in this session, so a generic high-quality art prompt was used.",
		}
	}

	if s.aiClient != nil {
		if res, ok := s.synthesizeRemote(ctx, likedDescriptions); ok {
			return res
		}
	}

	// リモート合成に失敗した場合はローカルキーワード抽出へ
	if keywords := ExtractKeywords(likedDescriptions); len(keywords) > 0 {
		slog.Info("リモート合成が使えないためキーワード抽出で合成しました", "keywords", len(keywords))
		return Result{
			Prompt: buildKeywordPrompt(keywords),
			Rationale: fmt.Sprintf(
				"Remote synthesis was unavailable; built from extracted preference keywords: %s.",
				strings.Join(keywords, ", ")),
		}
	}

	// キーワードも拾えなければ記述を直接埋め込む定型テンプレートへ
	prompt := ensureQualitySuffix(buildTemplatePrompt(likedDescriptions))
	return Result{
		Prompt:    prompt,
		Rationale: "No known style keywords were found; embedded the liked descriptions directly into a template.",
	}
}

// synthesizeRemote はリモートLMに固定フィールド形式のレスポンスを要求します。
// パース可能なプロンプトが得られなければ ok=false を返します。
func (s *Synthesizer) synthesizeRemote(ctx context.Context, liked []string) (Result, bool) {
	instruction := buildInstruction(liked)

	resp, err := s.aiClient.GenerateContent(ctx, s.model, instruction)
	if err != nil {
		slog.Warn("リモートプロンプト合成に失敗しました。ローカル抽出へフォールバックします", "error", err)
		return Result{}, false
	}

	text := responseText(resp)
	if text == "" {
		slog.Warn("リモートレスポンスが空のためローカル抽出へフォールバックします")
		return Result{}, false
	}

	parsed := ParseStructured(text)
	if parsed.Prompt == "" {
		// 二次ヒューリスティック: 品質語彙を含むプロンプトらしい行を探す
		parsed.Prompt = ExtractQualityLine(text)
	}
	if parsed.Prompt == "" {
		slog.Warn("リモートレスポンスからプロンプトを抽出できませんでした")
		return Result{}, false
	}

	rationale := parsed.Reason
	if rationale == "" {
		rationale = "Synthesized by the remote language model from the liked image descriptions."
	}

	return Result{
		Prompt:         ensureQualitySuffix(parsed.Prompt),
		NegativePrompt: parsed.Negative,
		Rationale:      rationale,
		Style:          parsed.Style,
		Mood:           parsed.Mood,
	}, true
}

// buildInstruction は好みの記述を番号付きで並べた構造化指示を組み立てます。
func buildInstruction(liked []string) string {
	var b strings.Builder
	b.WriteString("You are an expert prompt engineer for image generation models.\n")
	b.WriteString("Based on the user's liked image descriptions below, compose one generation prompt.\n\n")

	for i, desc := range liked {
		fmt.Fprintf(&b, "%d. %s\n", i+1, desc)
	}

	b.WriteString("\nRespond with exactly these fields, one per line:\n")
	b.WriteString("PROMPT: <the generation prompt>\n")
	b.WriteString("NEGATIVE: <things to avoid>\n")
	b.WriteString("REASON: <one sentence explaining the choice>\n")
	b.WriteString("STYLE: <dominant art style>\n")
	b.WriteString("MOOD: <dominant mood>\n")
	return b.String()
}

// ensureQualitySuffix は品質語彙の系列が含まれないプロンプトに標準の品質指定を付与します。
func ensureQualitySuffix(prompt string) string {
	if hasQualityKeyword(prompt) {
		return prompt
	}
	return prompt + ", " + qualitySuffix
}

// responseText はLMレスポンスからテキスト部分を連結して取り出します。
func responseText(resp *gemini.Response) string {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return ""
	}

	var b strings.Builder
	for _, candidate := range resp.RawResponse.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			writeTextPart(&b, part)
		}
		// 最初の有効な候補のみ採用する
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func writeTextPart(b *strings.Builder, part *genai.Part) {
	if part == nil || part.Text == "" {
		return
	}
	b.WriteString(part.Text)
	b.WriteString("\n")
}
