package cascade

import (
	"fmt"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// attemptState は1バックエンドに対する試行の状態です。
// カスケードドライバは各バックエンドを必ず終端状態（succeeded / failed）に
// 遷移させてから次へ進みます。
type attemptState int

const (
	stateNotStarted attemptState = iota
	stateInFlight
	stateSucceeded
	stateFailed
)

// attempt は1バックエンド分の試行記録です。
type attempt struct {
	backendName string
	state       attemptState
	tries       int
	failKind    domain.ErrKind
	err         error
}

func newAttempt(backendName string) *attempt {
	return &attempt{backendName: backendName, state: stateNotStarted}
}

// begin は1回の呼び出し開始を記録します。
func (a *attempt) begin() {
	a.state = stateInFlight
	a.tries++
}

// succeed は試行を成功の終端状態に遷移させます。
func (a *attempt) succeed() {
	a.state = stateSucceeded
}

// fail は試行を失敗の終端状態に遷移させます。最後の失敗が記録されます。
func (a *attempt) fail(kind domain.ErrKind, err error) {
	a.state = stateFailed
	a.failKind = kind
	a.err = err
}

// terminal は試行が終端状態に達しているかを返します。
func (a *attempt) terminal() bool {
	return a.state == stateSucceeded || a.state == stateFailed
}

// note は Rationale 組み立て用の1行サマリです。
func (a *attempt) note() string {
	if a.state != stateFailed {
		return ""
	}
	return fmt.Sprintf("%s failed (%s)", a.backendName, a.failKind)
}
