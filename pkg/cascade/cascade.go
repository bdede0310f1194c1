// Package cascade はバックエンド選択とフォールバックの駆動を担います。
// ネイティブクラウド → 呼び出し元選択バックエンド → ローカル合成の順に試行し、
// 1リクエストにつき必ず1つの終端結果（画像またはクォータエラー）を返します。
package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-swipe-art-kit/pkg/backend"
	"github.com/shouni/go-swipe-art-kit/pkg/domain"
	"github.com/shouni/go-swipe-art-kit/pkg/rateguard"
)

const (
	// DefaultNativeTimeout はネイティブバックエンド呼び出し全体の壁時計予算です。
	DefaultNativeTimeout = 30 * time.Second
	// DefaultMaxAttempts はネットワーク系失敗の再試行上限です。
	DefaultMaxAttempts = 3
	// DefaultBackoff は線形バックオフの基底です（n回目の待機は n×基底）。
	DefaultBackoff = time.Second
)

// Options は Cascade の構築パラメータです。
type Options struct {
	// Native は最優先で試行されるネイティブクラウドバックエンドです。省略可能。
	// 登録されている場合、呼び出し元のモデル選択に関わらず常に先頭で試行されます。
	Native backend.Backend
	// Registry は呼び出し元選択バックエンドの解決表です（バックエンド識別子 → 実体）。
	Registry map[string]backend.Backend
	// Local は必ず成功するローカル合成です。必須。
	Local backend.Backend
	// Guard は生成パスの即時拒否型レートガードです。省略可能。
	Guard *rateguard.Guard

	NativeTimeout time.Duration
	MaxAttempts   int
	Backoff       time.Duration
}

// Cascade はフォールバックカスケードのドライバです。
type Cascade struct {
	native        backend.Backend
	registry      map[string]backend.Backend
	local         backend.Backend
	guard         *rateguard.Guard
	nativeTimeout time.Duration
	maxAttempts   int
	backoff       time.Duration

	sleep func(ctx context.Context, d time.Duration) error // テスト用に差し替え可能
}

// New は Cascade を初期化します。Local は必須です。
func New(opts Options) (*Cascade, error) {
	if opts.Local == nil {
		return nil, fmt.Errorf("local backend is required")
	}

	nativeTimeout := opts.NativeTimeout
	if nativeTimeout <= 0 {
		nativeTimeout = DefaultNativeTimeout
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return &Cascade{
		native:        opts.Native,
		registry:      opts.Registry,
		local:         opts.Local,
		guard:         opts.Guard,
		nativeTimeout: nativeTimeout,
		maxAttempts:   maxAttempts,
		backoff:       backoff,
		sleep:         sleepCtx,
	}, nil
}

// Generate はカスケードを駆動して画像を生成します。
// クォータ拒否以外では必ず画像が返ります（ローカル合成が終端保証）。
func (c *Cascade) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	// 生成パスのレートガードは即時拒否ポリシー（呼び出し元へそのまま伝搬）
	if c.guard != nil {
		if err := c.guard.Allow(ctx); err != nil {
			return nil, err
		}
	}

	var notes []string
	for _, b := range c.remoteOrder(req) {
		budget := time.Duration(0)
		if b == c.native {
			budget = c.nativeTimeout
		}

		res, att := c.runBackend(ctx, b, req, budget)
		if att.state == stateSucceeded {
			res.Rationale = successRationale(b.Name(), notes)
			return res, nil
		}

		slog.Warn("バックエンドが失敗したため次へフォールバックします",
			"backend", b.Name(), "kind", att.failKind.String(), "tries", att.tries, "error", att.err)
		notes = append(notes, att.note())
	}

	// ローカル合成は失敗経路を持たない終端
	res, err := c.local.Generate(ctx, req)
	if err != nil {
		// 設計上到達しない。到達した場合のみ呼び出し元へエラーが見える。
		return nil, fmt.Errorf("local synthesizer failed: %w", err)
	}
	res.Rationale = successRationale(c.local.Name(), notes)
	return res, nil
}

// remoteOrder はリモートバックエンドの試行順を決めます。
// ネイティブが登録されていれば常に先頭、次に呼び出し元の選択です。重複は除きます。
func (c *Cascade) remoteOrder(req domain.GenerationRequest) []backend.Backend {
	var order []backend.Backend
	if c.native != nil {
		order = append(order, c.native)
	}
	if selected, ok := c.registry[req.Model.Backend]; ok && selected != c.native {
		order = append(order, selected)
	}
	return order
}

// runBackend は1バックエンドを終端状態まで駆動します。
// 認証・設定エラーは即座に打ち切り、ネットワーク系は線形バックオフで再試行します。
func (c *Cascade) runBackend(ctx context.Context, b backend.Backend, req domain.GenerationRequest, budget time.Duration) (*domain.GenerationResult, *attempt) {
	att := newAttempt(b.Name())

	attemptCtx := ctx
	cancel := func() {}
	if budget > 0 {
		// 壁時計予算との競争: 予算超過が先に来た試行はキャンセルされる
		attemptCtx, cancel = context.WithTimeout(ctx, budget)
	}
	defer cancel()

	for !att.terminal() {
		att.begin()
		res, err := b.Generate(attemptCtx, req)
		if err == nil {
			att.succeed()
			return res, att
		}

		kind := domain.Classify(err)
		switch kind {
		case domain.KindNetwork, domain.KindTimeout, domain.KindUnknown:
			if att.tries >= c.maxAttempts || attemptCtx.Err() != nil {
				// 再試行上限か壁時計予算の超過。このバックエンドでは終端。
				att.fail(kind, err)
				continue
			}
			// 線形バックオフ後に再試行する
			wait := c.backoff * time.Duration(att.tries)
			if sleepErr := c.sleep(attemptCtx, wait); sleepErr != nil {
				att.fail(domain.KindTimeout, err)
			}
		default:
			// 認証・設定・デコード・上流失敗は再試行せず当該バックエンドでは終端
			att.fail(kind, err)
		}
	}

	return nil, att
}

// successRationale はどの経路で画像が得られたかの説明文を組み立てます。
func successRationale(backendName string, failureNotes []string) string {
	if len(failureNotes) == 0 {
		return fmt.Sprintf("Generated by the %s backend.", backendName)
	}
	return fmt.Sprintf("Fell back to the %s backend because %s.",
		backendName, strings.Join(failureNotes, ", "))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
