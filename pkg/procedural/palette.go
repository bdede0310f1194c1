package procedural

import (
	"image/color"
	"strings"
)

// styleClass はプロンプトから推定する画風カテゴリです。
type styleClass int

const (
	classWarm styleClass = iota // デフォルト: 暖色
	classPastel
	classNature
	classNight
)

// palette は1カテゴリ分の配色です。
type palette struct {
	top    color.RGBA // グラデーション上端
	bottom color.RGBA // グラデーション下端
	motif  color.RGBA // 装飾モチーフ
	accent color.RGBA // 二次モチーフ
	text   color.RGBA // プロンプト文字
}

// classKeywords はカテゴリ判定に使う部分一致キーワードです。
var classKeywords = []struct {
	class styleClass
	words []string
}{
	{classPastel, []string{"anime", "cute", "pastel", "kawaii", "soft"}},
	{classNature, []string{"nature", "forest", "green", "ocean", "landscape"}},
	{classNight, []string{"night", "mysterious", "dark", "moon", "space"}},
}

// classifyPrompt はプロンプトを大文字小文字を無視した部分一致で分類します。
// どのカテゴリにも一致しない場合は暖色系がデフォルトです。
func classifyPrompt(prompt string) styleClass {
	lower := strings.ToLower(prompt)
	for _, ck := range classKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.class
			}
		}
	}
	return classWarm
}

// paletteFor はカテゴリに対応する配色を返します。
func paletteFor(class styleClass) palette {
	switch class {
	case classPastel:
		return palette{
			top:    color.RGBA{255, 223, 235, 255},
			bottom: color.RGBA{210, 225, 255, 255},
			motif:  color.RGBA{255, 182, 213, 255},
			accent: color.RGBA{255, 250, 205, 255},
			text:   color.RGBA{120, 90, 120, 255},
		}
	case classNature:
		return palette{
			top:    color.RGBA{200, 235, 190, 255},
			bottom: color.RGBA{40, 110, 70, 255},
			motif:  color.RGBA{90, 170, 110, 255},
			accent: color.RGBA{235, 245, 200, 255},
			text:   color.RGBA{245, 250, 240, 255},
		}
	case classNight:
		return palette{
			top:    color.RGBA{25, 20, 55, 255},
			bottom: color.RGBA{70, 40, 110, 255},
			motif:  color.RGBA{200, 180, 255, 255},
			accent: color.RGBA{255, 240, 180, 255},
			text:   color.RGBA{235, 230, 250, 255},
		}
	default:
		return palette{
			top:    color.RGBA{255, 210, 150, 255},
			bottom: color.RGBA{230, 120, 90, 255},
			motif:  color.RGBA{255, 170, 110, 255},
			accent: color.RGBA{255, 235, 190, 255},
			text:   color.RGBA{90, 50, 40, 255},
		}
	}
}
