package procedural

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

func TestSynthesizer_Generate(t *testing.T) {
	ctx := context.Background()
	s := NewSynthesizer()

	t.Run("常に有効なPNG画像を返すのだ", func(t *testing.T) {
		prompts := []string{
			"a pastel anime illustration of a cat",
			"a mysterious night sky over the mountains",
			"a green forest in the morning",
			"a completely unclassifiable subject",
			"", // 空プロンプトでも失敗しない
		}

		for _, prompt := range prompts {
			res, err := s.Generate(ctx, domain.GenerationRequest{Prompt: prompt})

			require.NoError(t, err, "prompt=%q", prompt)
			require.NotNil(t, res)
			assert.Equal(t, "image/png", res.MimeType)
			assert.Equal(t, BackendName, res.Backend)

			img, format, err := image.Decode(bytes.NewReader(res.Data))
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Equal(t, imageSize, img.Bounds().Dx())
		}
	})

	t.Run("同一プロンプトで繰り返し呼んでも失敗しないのだ", func(t *testing.T) {
		req := domain.GenerationRequest{Prompt: "dreamy pastel clouds"}

		first, err := s.Generate(ctx, req)
		require.NoError(t, err)
		second, err := s.Generate(ctx, req)
		require.NoError(t, err)

		// 配置はランダムなのでピクセル一致は要求しない
		assert.NotEmpty(t, first.Data)
		assert.NotEmpty(t, second.Data)
	})
}

func TestClassifyPrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   styleClass
	}{
		{"anime はパステル系", "an ANIME girl with flowers", classPastel},
		{"cute はパステル系", "a cute hamster", classPastel},
		{"forest は自然系", "deep forest trail", classNature},
		{"night は夜系", "night city skyline", classNight},
		{"mysterious は夜系", "a mysterious figure", classNight},
		{"未知語はデフォルトの暖色系", "abstract machinery", classWarm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyPrompt(tt.prompt))
		})
	}
}

func TestTruncateOverlay(t *testing.T) {
	t.Run("短いプロンプトはそのままなのだ", func(t *testing.T) {
		assert.Equal(t, "short", truncateOverlay("short"))
	})

	t.Run("長いプロンプトは省略記号付きで切り詰められるのだ", func(t *testing.T) {
		long := make([]rune, 100)
		for i := range long {
			long[i] = 'x'
		}
		got := truncateOverlay(string(long))
		assert.Len(t, []rune(got), maxOverlayText+3)
	})
}
