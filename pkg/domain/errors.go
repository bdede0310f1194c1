package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind はパイプライン内の失敗分類です。フォールバックカスケードの
// リトライ判断（再試行するか、次のバックエンドへ進むか）に使われます。
type ErrKind int

const (
	// KindUnknown は分類できない失敗です。ネットワーク失敗と同様に扱われます。
	KindUnknown ErrKind = iota
	// KindConfiguration は認証情報やプロジェクト設定の不足・プレースホルダ値です。
	// ネットワーク呼び出し前に即時失敗します。
	KindConfiguration
	// KindAuthentication は 401/403 です。同一バックエンドの残りリトライを打ち切ります。
	KindAuthentication
	// KindNetwork は接続・転送層の失敗です。固定回数まで再試行されます。
	KindNetwork
	// KindTimeout はポーリング上限または壁時計予算の超過です。当該バックエンドでは終端です。
	KindTimeout
	// KindDecoding は不正なレスポンスボディです。再試行せず次のバックエンドへ進みます。
	KindDecoding
	// KindUpstream はバックエンドがジョブ失敗を報告した状態です。当該バックエンドでは終端です。
	KindUpstream
	// KindQuota はレートガードによる拒否です。呼び出し元へそのまま伝搬します。
	KindQuota
)

// String は ErrKind のログ表示用ラベルを返します。
func (k ErrKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindDecoding:
		return "decoding"
	case KindUpstream:
		return "upstream"
	case KindQuota:
		return "quota"
	default:
		return "unknown"
	}
}

// PipelineError は分類付きの失敗です。errors.As で取り出せます。
type PipelineError struct {
	Kind    ErrKind
	Backend string // 失敗したバックエンド名（バックエンド外の失敗では空）
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s: %s: %v", e.Backend, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewError は分類付きエラーを生成します。
func NewError(kind ErrKind, backend string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Backend: backend, Err: err}
}

// Errorf は分類付きエラーをフォーマット付きで生成します。
func Errorf(kind ErrKind, backend, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Backend: backend, Err: fmt.Errorf(format, args...)}
}

// Classify はエラーから ErrKind を取り出します。未分類は KindUnknown です。
func Classify(err error) ErrKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// KindFromStatus は HTTP ステータスコードを失敗分類へ写像します。
func KindFromStatus(status int) ErrKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusTooManyRequests:
		return KindQuota
	case status >= 500:
		return KindNetwork
	default:
		return KindUpstream
	}
}
