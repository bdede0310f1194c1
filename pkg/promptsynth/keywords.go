package promptsynth

import (
	"fmt"
	"strings"
)

const maxExtractedKeywords = 8

// keywordCategories はローカル抽出に使う固定5カテゴリの語彙です。
// 画風・色・雰囲気・主題・技法の順に走査されます。
var keywordCategories = []struct {
	name  string
	words []string
}{
	{"art_style", []string{
		"anime", "manga", "watercolor", "oil painting", "digital art",
		"pixel art", "sketch", "illustration", "photorealistic", "abstract",
	}},
	{"color", []string{
		"pastel", "vibrant", "monochrome", "colorful", "pink",
		"blue", "green", "purple", "golden", "neon",
	}},
	{"mood", []string{
		"dreamy", "mysterious", "peaceful", "dramatic", "cute",
		"elegant", "dark", "bright", "soft", "bold",
	}},
	{"theme", []string{
		"nature", "forest", "ocean", "city", "fantasy",
		"space", "flowers", "animals", "cat", "landscape",
	}},
	{"technique", []string{
		"lighting", "composition", "texture", "gradient", "minimalist",
		"detailed linework", "soft focus", "bokeh",
	}},
}

// positiveSentiments はテンプレート選択に使うポジティブ語彙です。
var positiveSentiments = []string{
	"beautiful", "lovely", "stunning", "gorgeous", "wonderful", "soft", "cute",
}

// ExtractKeywords は好みの記述の連結文字列（小文字化済みとして比較）から
// カテゴリ語彙に一致するキーワードを最大8件収集します。順序はカテゴリ順・語彙順です。
func ExtractKeywords(likedDescriptions []string) []string {
	combined := strings.ToLower(strings.Join(likedDescriptions, " "))

	var matches []string
	for _, cat := range keywordCategories {
		for _, word := range cat.words {
			if len(matches) >= maxExtractedKeywords {
				return matches
			}
			if strings.Contains(combined, word) {
				matches = append(matches, word)
			}
		}
	}
	return matches
}

// buildKeywordPrompt は抽出キーワードから定型プロンプトを組み立てます。
func buildKeywordPrompt(keywords []string) string {
	return fmt.Sprintf(
		"Create a beautiful artwork featuring %s, high quality, detailed, artistic style",
		strings.Join(keywords, ", "),
	)
}

// buildTemplatePrompt はキーワード抽出も失敗した場合の最終テンプレートです。
// 好みの記述の連結（200ルーン以内に切り詰め）を、ポジティブ語彙の有無で
// 選んだテンプレートへ埋め込みます。
func buildTemplatePrompt(likedDescriptions []string) string {
	combined := strings.Join(likedDescriptions, ", ")
	combined = truncateRunes(combined, 200)

	lower := strings.ToLower(combined)
	for _, word := range positiveSentiments {
		if strings.Contains(lower, word) {
			return fmt.Sprintf("A breathtaking artwork inspired by: %s", combined)
		}
	}
	return fmt.Sprintf("An expressive artwork based on these preferences: %s", combined)
}

// truncateRunes は文字列をルーン数で安全に切り詰めます。
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
