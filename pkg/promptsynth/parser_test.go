package promptsynth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStructured(t *testing.T) {
	t.Run("全フィールドが抽出されるのだ", func(t *testing.T) {
		response := `PROMPT: a serene pastel landscape with cherry blossoms
NEGATIVE: text, watermark
REASON: the user consistently liked soft pastel scenes
STYLE: watercolor
MOOD: peaceful`

		got := ParseStructured(response)

		assert.Equal(t, "a serene pastel landscape with cherry blossoms", got.Prompt)
		assert.Equal(t, "text, watermark", got.Negative)
		assert.Equal(t, "the user consistently liked soft pastel scenes", got.Reason)
		assert.Equal(t, "watercolor", got.Style)
		assert.Equal(t, "peaceful", got.Mood)
	})

	t.Run("接頭辞は大文字小文字を区別しないのだ", func(t *testing.T) {
		got := ParseStructured("prompt: a quiet forest path\nMood: calm")

		assert.Equal(t, "a quiet forest path", got.Prompt)
		assert.Equal(t, "calm", got.Mood)
	})

	t.Run("フィールドごとに最初の一致行が採用されるのだ", func(t *testing.T) {
		response := "PROMPT: first prompt\nPROMPT: second prompt"

		got := ParseStructured(response)

		assert.Equal(t, "first prompt", got.Prompt)
	})

	t.Run("未知の行は無視されるのだ", func(t *testing.T) {
		response := "Here is my suggestion:\nPROMPT: a neon city at night\nHope this helps!"

		got := ParseStructured(response)

		assert.Equal(t, "a neon city at night", got.Prompt)
		assert.Empty(t, got.Negative)
	})

	t.Run("PROMPT が無い場合は空のまま返るのだ", func(t *testing.T) {
		got := ParseStructured("STYLE: anime\nMOOD: cheerful")

		assert.Empty(t, got.Prompt)
		assert.Equal(t, "anime", got.Style)
	})
}

func TestExtractQualityLine(t *testing.T) {
	t.Run("品質語彙を2語以上含む行が採用されるのだ", func(t *testing.T) {
		response := `I think this could work:
a detailed masterpiece of a mountain lake at sunrise
short line`

		got := ExtractQualityLine(response)

		assert.Equal(t, "a detailed masterpiece of a mountain lake at sunrise", got)
	})

	t.Run("20文字未満の行は対象外なのだ", func(t *testing.T) {
		got := ExtractQualityLine("detailed masterpiece")
		assert.Empty(t, got)
	})

	t.Run("品質語彙が1語だけの行は対象外なのだ", func(t *testing.T) {
		got := ExtractQualityLine("a very detailed drawing of a house in the countryside")
		assert.Empty(t, got)
	})

	t.Run("該当行がなければ空文字列を返すのだ", func(t *testing.T) {
		assert.Empty(t, ExtractQualityLine("nothing useful here"))
	})
}
