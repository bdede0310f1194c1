// Package procedural はネットワークに依存しないフォールバック画像生成器です。
// プロンプトをキーワード分類して配色とモチーフを選び、グラデーションと
// 装飾を重ねたプレースホルダ画像を合成します。失敗経路を持たないことが
// カスケード全体の終端保証になっています。
package procedural

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
	"github.com/shouni/go-swipe-art-kit/pkg/imgutil"
)

const (
	// BackendName はカスケードが参照するバックエンド識別子です。
	BackendName = "procedural"

	imageSize      = 768
	maxOverlayText = 60
	watermark      = "DEMO"
)

// Synthesizer はプロシージャル画像生成器です。外部状態を持ちません。
// モチーフの配置はランダムで、再現性は保証されません（プレースホルダ用途のため）。
type Synthesizer struct{}

// NewSynthesizer は Synthesizer を初期化します。
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Name はバックエンド識別子を返します。
func (s *Synthesizer) Name() string { return BackendName }

// Generate はプロンプトからプレースホルダ画像を合成します。
// ネットワークにも外部状態にも依存しないため、失敗しません。
func (s *Synthesizer) Generate(_ context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	class := classifyPrompt(req.Prompt)
	pal := paletteFor(class)

	img := image.NewRGBA(image.Rect(0, 0, imageSize, imageSize))
	drawGradient(img, pal.top, pal.bottom)

	switch class {
	case classPastel:
		drawSoftCircles(img, pal.accent, 14)
		drawStarBursts(img, pal.motif, 6)
	case classNature:
		drawWaveLines(img, pal.motif, 9)
		drawSoftCircles(img, pal.accent, 5)
	case classNight:
		drawStarBursts(img, pal.accent, 24)
		drawLightRays(img, pal.motif, 7)
	default:
		drawLightRays(img, pal.accent, 9)
		drawSoftCircles(img, pal.motif, 6)
	}

	drawOverlayText(img, truncateOverlay(req.Prompt), pal.text)
	drawWatermark(img, pal.text)

	data, err := imgutil.EncodePNG(img)
	if err != nil {
		// 固定サイズRGBAのPNGエンコードは実際には失敗しない
		return nil, domain.NewError(domain.KindDecoding, BackendName, err)
	}

	return &domain.GenerationResult{
		Data:     data,
		MimeType: "image/png",
		Prompt:   req.Prompt,
		Backend:  BackendName,
	}, nil
}

// drawGradient は上端色から下端色への縦方向グラデーションを塗ります。
func drawGradient(img *image.RGBA, top, bottom color.RGBA) {
	bounds := img.Bounds()
	height := float64(bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		t := float64(y-bounds.Min.Y) / height
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawSoftCircles は半透明の円モチーフをランダム配置します。
func drawSoftCircles(img *image.RGBA, c color.RGBA, count int) {
	bounds := img.Bounds()
	for i := 0; i < count; i++ {
		cx := rand.IntN(bounds.Dx())
		cy := rand.IntN(bounds.Dy())
		r := 20 + rand.IntN(70)
		fillCircle(img, cx, cy, r, c, 0.35)
	}
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA, alpha float64) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			blendPixel(img, cx+dx, cy+dy, c, alpha)
		}
	}
}

// drawStarBursts は中心から放射する短い線分で星型モチーフを描きます。
func drawStarBursts(img *image.RGBA, c color.RGBA, count int) {
	bounds := img.Bounds()
	for i := 0; i < count; i++ {
		cx := rand.IntN(bounds.Dx())
		cy := rand.IntN(bounds.Dy())
		length := 6 + rand.IntN(18)
		for ray := 0; ray < 8; ray++ {
			angle := float64(ray) * math.Pi / 4
			drawLine(img, cx, cy, angle, length, c, 0.8)
		}
	}
}

// drawWaveLines は画面を横切る正弦波の線を描きます。
func drawWaveLines(img *image.RGBA, c color.RGBA, count int) {
	bounds := img.Bounds()
	for i := 0; i < count; i++ {
		baseY := rand.IntN(bounds.Dy())
		amp := 8.0 + rand.Float64()*24
		freq := 0.01 + rand.Float64()*0.02
		phase := rand.Float64() * 2 * math.Pi
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			y := baseY + int(amp*math.Sin(freq*float64(x)+phase))
			blendPixel(img, x, y, c, 0.6)
			blendPixel(img, x, y+1, c, 0.4)
		}
	}
}

// drawLightRays は下辺付近の一点から上方へ伸びる光条を描きます。
func drawLightRays(img *image.RGBA, c color.RGBA, count int) {
	bounds := img.Bounds()
	originX := bounds.Dx() / 2
	originY := bounds.Dy() - bounds.Dy()/8
	for i := 0; i < count; i++ {
		angle := -math.Pi/2 + (rand.Float64()-0.5)*math.Pi/2
		length := bounds.Dy()/3 + rand.IntN(bounds.Dy()/3)
		drawLine(img, originX, originY, angle, length, c, 0.5)
	}
}

func drawLine(img *image.RGBA, x, y int, angle float64, length int, c color.RGBA, alpha float64) {
	for step := 0; step < length; step++ {
		px := x + int(math.Cos(angle)*float64(step))
		py := y + int(math.Sin(angle)*float64(step))
		blendPixel(img, px, py, c, alpha)
	}
}

// blendPixel はアルファ合成で1ピクセルを重ねます。範囲外は無視します。
func blendPixel(img *image.RGBA, x, y int, c color.RGBA, alpha float64) {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return
	}
	base := img.RGBAAt(x, y)
	img.SetRGBA(x, y, color.RGBA{
		R: lerp(base.R, c.R, alpha),
		G: lerp(base.G, c.G, alpha),
		B: lerp(base.B, c.B, alpha),
		A: 255,
	})
}

// drawOverlayText は切り詰めたプロンプト文字列を左下に描画します。
func drawOverlayText(img *image.RGBA, text string, c color.RGBA) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(16, imageSize-40),
	}
	drawer.DrawString(text)
}

// drawWatermark は右下にデモ表示を描画します。
func drawWatermark(img *image.RGBA, c color.RGBA) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(imageSize-60, imageSize-16),
	}
	drawer.DrawString(watermark)
}

// truncateOverlay はプロンプトをオーバーレイ表示用に切り詰めます。
func truncateOverlay(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxOverlayText {
		return prompt
	}
	return fmt.Sprintf("%s...", string(runes[:maxOverlayText]))
}
