package geminigen

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/shouni/go-swipe-art-kit/pkg/backend"
)

const (
	// bearerTokenTTL は短命トークンの再利用期間です。発行元の有効期限（約1時間）
	// より短く取り、失効直前のトークンで呼び出してしまうのを避けます。
	bearerTokenTTL = 55 * time.Minute
	tokenCacheKey  = "geminigen:bearer-token"
)

// TokenSource は短命ベアラートークンの発行元です。
// Vertex 型のデプロイではメタデータサーバや認証ライブラリが実体になります。
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenCacher は発行済みトークンをTTL付きで保持するためのインターフェースです。
// *gocache.Cache がこのインターフェースを満たします。
type TokenCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// CredentialProvider は認証情報の解決を担うコンポーネントです。
// 短命ベアラートークンを優先し（約1時間キャッシュして再発行）、
// 発行に失敗した場合は静的に設定されたキーへフォールバックします。
// どちらの経路でもプレースホルダ値は「未設定」と同一視され、
// ネットワーク呼び出し前に Configuration エラーになります。
type CredentialProvider struct {
	source    TokenSource // nil の場合は静的キーのみで動作する
	staticKey string
	cache     TokenCacher
}

// NewCredentialProvider は CredentialProvider を初期化します。
// tokenCache が nil の場合は go-cache を内部で生成します。
func NewCredentialProvider(source TokenSource, staticKey string, tokenCache TokenCacher) *CredentialProvider {
	if tokenCache == nil {
		tokenCache = gocache.New(bearerTokenTTL, time.Hour)
	}
	return &CredentialProvider{
		source:    source,
		staticKey: staticKey,
		cache:     tokenCache,
	}
}

// Credential は現在有効な認証情報を返します。
// トークン発行の失敗はここで吸収して静的キーへ切り替え、静的キーも
// 無効な場合のみエラーを返します。
func (p *CredentialProvider) Credential(ctx context.Context) (string, error) {
	if p.source != nil {
		if val, ok := p.cache.Get(tokenCacheKey); ok {
			if tok, ok := val.(string); ok && tok != "" {
				return tok, nil
			}
		}

		tok, err := p.source.Token(ctx)
		if err == nil && tok != "" && !backend.IsPlaceholder(tok) {
			p.cache.Set(tokenCacheKey, tok, bearerTokenTTL)
			return tok, nil
		}
		slog.WarnContext(ctx, "短命トークンの取得に失敗したため静的キーへフォールバックします",
			"backend", BackendName, "error", err)
	}

	if err := backend.ValidateCredential(BackendName, "gemini api key", p.staticKey); err != nil {
		return "", err
	}
	return p.staticKey, nil
}
