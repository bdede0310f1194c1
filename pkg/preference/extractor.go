// Package preference はスワイプ結果から「好み」の記述テキストを抽出します。
// 純粋関数のみで構成され、I/O や副作用を持ちません。
package preference

import (
	"strings"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// LikedDescriptions は評価履歴から「好み」と判定された解析テキストのみを抽出します。
// 好みが1件もない場合は空スライスを返します。エラーにはなりません —
// 呼び出し元は空の結果を汎用プロンプトへのフォールバックとして扱う契約です。
func LikedDescriptions(results []domain.EvaluationResult) []string {
	liked := make([]string, 0, len(results))
	for _, r := range results {
		if r.Direction != domain.DirectionLiked {
			continue
		}
		text := strings.TrimSpace(r.AnalysisText)
		if text == "" {
			continue
		}
		liked = append(liked, text)
	}
	return liked
}

// LikedFromOutcomes はスワイプ結果（解析テキスト付き）から好みの記述を抽出します。
// 解析テキストを持たない好みスワイプはスキップされます。
func LikedFromOutcomes(outcomes []domain.SwipeOutcome) []string {
	liked := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Liked() {
			continue
		}
		text := strings.TrimSpace(o.AnalysisText)
		if text == "" {
			continue
		}
		liked = append(liked, text)
	}
	return liked
}
