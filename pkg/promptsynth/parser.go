package promptsynth

import (
	"strings"
)

// StructuredPrompt はリモートLMへ依頼した固定フィールド形式の解析結果です。
type StructuredPrompt struct {
	Prompt   string
	Negative string
	Reason   string
	Style    string
	Mood     string
}

// fieldPrefixes はレスポンス各行を走査する際のフィールド接頭辞です。
var fieldPrefixes = []string{"PROMPT:", "NEGATIVE:", "REASON:", "STYLE:", "MOOD:"}

// ParseStructured はLMレスポンスを行単位で走査し、固定フィールドを抽出します。
// 接頭辞の照合は大文字小文字を区別せず、フィールドごとに最初の一致行が採用されます。
// 未知の行は無視します。PROMPT: が見つからない場合、Prompt は空のままです。
func ParseStructured(response string) StructuredPrompt {
	var out StructuredPrompt

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		for _, prefix := range fieldPrefixes {
			if !strings.HasPrefix(upper, prefix) {
				continue
			}
			value := strings.TrimSpace(line[len(prefix):])
			if value == "" {
				break
			}
			switch prefix {
			case "PROMPT:":
				if out.Prompt == "" {
					out.Prompt = value
				}
			case "NEGATIVE:":
				if out.Negative == "" {
					out.Negative = value
				}
			case "REASON:":
				if out.Reason == "" {
					out.Reason = value
				}
			case "STYLE:":
				if out.Style == "" {
					out.Style = value
				}
			case "MOOD:":
				if out.Mood == "" {
					out.Mood = value
				}
			}
			break
		}
	}

	return out
}

// qualityKeywords はプロンプトらしい行を推定するための品質語彙です。
var qualityKeywords = []string{
	"detailed", "masterpiece", "high quality", "artistic",
	"beautiful", "intricate", "cinematic", "vibrant",
}

// ExtractQualityLine は構造化パースが失敗した場合の二次ヒューリスティックです。
// 品質語彙を2語以上含み、長さが20〜200文字の最初の行を返します。
// 該当行がなければ空文字列を返します。
func ExtractQualityLine(response string) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 20 || len(line) > 200 {
			continue
		}

		lower := strings.ToLower(line)
		hits := 0
		for _, kw := range qualityKeywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits >= 2 {
			return line
		}
	}
	return ""
}

// hasQualityKeyword はプロンプトが品質語彙の系列を既に含むかを判定します。
func hasQualityKeyword(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, kw := range qualityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
