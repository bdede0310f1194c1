package domain

import "time"

// SwipeDirection はスワイプ操作の向き（好み／非好み）を表します。
type SwipeDirection string

const (
	DirectionLiked    SwipeDirection = "liked"
	DirectionDisliked SwipeDirection = "disliked"
)

// SwipeOutcome は1枚の画像に対するユーザーのスワイプ結果です。
// 記録後は不変であり、評価セッションが所有します。
type SwipeOutcome struct {
	ImageID      string         `json:"image_id"`
	ImageURL     string         `json:"image_url,omitempty"`
	Direction    SwipeDirection `json:"direction"`
	AnalysisText string         `json:"analysis_text,omitempty"`
}

// Liked はこのスワイプが「好み」方向であるかを返します。
func (o SwipeOutcome) Liked() bool {
	return o.Direction == DirectionLiked
}

// EvaluationResult はリモート解析によって得られた1枚分の評価結果です。
// 生成後は変更されず、セッション内の評価履歴に時系列順で追加されます。
type EvaluationResult struct {
	ID           string         `json:"id"`
	ImageID      string         `json:"image_id"`
	Direction    SwipeDirection `json:"direction"`
	AnalysisText string         `json:"analysis_text"`
	Timestamp    time.Time      `json:"timestamp"`
}

// SwipeSession はCLIが読み込む1セッション分のスワイプ記録です。
type SwipeSession struct {
	Outcomes []SwipeOutcome `json:"outcomes"`
}
