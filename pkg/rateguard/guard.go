// Package rateguard はリモートAPI呼び出しの流量を抑えるスライディングウィンドウ型の
// ガードを提供します。解析パス（上限到達時はウィンドウ更新まで待機）と
// 生成パス（上限到達時は即時拒否）の2つのポリシーを区別して実装しています。
package rateguard

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// Policy は上限到達時のふるまいです。
type Policy int

const (
	// PolicyBlock はウィンドウがリセットされるまで呼び出し元を待機させます。
	PolicyBlock Policy = iota
	// PolicyReject は KindQuota のエラーで即時に拒否します。
	PolicyReject
)

// Guard は1コンポーネントが所有する呼び出しカウンタです。
// 所有コンポーネント以外から共有してはいけません。
type Guard struct {
	mu          sync.Mutex
	window      time.Duration
	limit       int
	policy      Policy
	windowStart time.Time
	count       int

	now func() time.Time // テスト用に差し替え可能
}

// NewBlocking は解析パス向けの待機型ガードを生成します。
func NewBlocking(window time.Duration, limit int) *Guard {
	return newGuard(window, limit, PolicyBlock)
}

// NewRejecting は生成パス向けの即時拒否型ガードを生成します。
func NewRejecting(window time.Duration, limit int) *Guard {
	return newGuard(window, limit, PolicyReject)
}

func newGuard(window time.Duration, limit int, policy Policy) *Guard {
	return &Guard{
		window: window,
		limit:  limit,
		policy: policy,
		now:    time.Now,
	}
}

// Allow は1回の呼び出し試行を登録します。
// 待機型ではウィンドウ更新まで待ち、拒否型では KindQuota エラーを返します。
// 待機は ctx のキャンセルで中断できます。
func (g *Guard) Allow(ctx context.Context) error {
	for {
		wait, err := g.tryAcquire()
		if err != nil {
			return err
		}
		if wait <= 0 {
			return nil
		}

		// ウィンドウが開くまで待機する（解析パスのみ）
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire はカウンタを進めます。待機が必要な場合はその時間を返します。
func (g *Guard) tryAcquire() (time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	// ウィンドウが経過していればカウンタをリセットする
	if g.windowStart.IsZero() || now.Sub(g.windowStart) >= g.window {
		g.windowStart = now
		g.count = 0
	}

	if g.count < g.limit {
		g.count++
		return 0, nil
	}

	if g.policy == PolicyReject {
		return 0, domain.Errorf(domain.KindQuota, "",
			"rate limit reached: %d calls per %s", g.limit, g.window)
	}

	remaining := g.window - now.Sub(g.windowStart)
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	return remaining, nil
}

// Remaining は現在のウィンドウで残っている呼び出し回数を返します。ログ表示用です。
func (g *Guard) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.windowStart.IsZero() || g.now().Sub(g.windowStart) >= g.window {
		return g.limit
	}
	if g.count >= g.limit {
		return 0
	}
	return g.limit - g.count
}
