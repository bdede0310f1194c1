package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

func TestAnalyzer_AnalyzeImage(t *testing.T) {
	ctx := context.Background()
	ref := ImageRef{ImageID: "img-1", URL: "https://www.example.com/img1.png", Direction: domain.DirectionLiked}

	t.Run("正常系で解析テキストが返りキャッシュされるのだ", func(t *testing.T) {
		cache := newMockCache()
		ai := &mockAIClient{text: "a pastel anime illustration of a cat"}
		a, err := NewAnalyzer(ai, &mockHTTPClient{data: []byte("fake-image")}, cache, nil, "vision-model", time.Hour)
		require.NoError(t, err)

		got, err := a.AnalyzeImage(ctx, ref)

		require.NoError(t, err)
		assert.Equal(t, "a pastel anime illustration of a cat", got)

		cached, ok := cache.Get(cacheKeyAnalysis + ref.URL)
		assert.True(t, ok, "解析テキストがキャッシュされること")
		assert.Equal(t, got, cached)
	})

	t.Run("キャッシュがあればAPIを呼ばないのだ", func(t *testing.T) {
		cache := newMockCache()
		cache.Set(cacheKeyAnalysis+ref.URL, "cached analysis", time.Hour)
		ai := &mockAIClient{text: "fresh analysis"}
		a, _ := NewAnalyzer(ai, &mockHTTPClient{data: []byte("x")}, cache, nil, "vision-model", time.Hour)

		got, err := a.AnalyzeImage(ctx, ref)

		require.NoError(t, err)
		assert.Equal(t, "cached analysis", got)
		assert.Zero(t, ai.callCount.Load())
	})

	t.Run("画像取得失敗はネットワーク分類なのだ", func(t *testing.T) {
		ai := &mockAIClient{text: "unused"}
		a, _ := NewAnalyzer(ai, &mockHTTPClient{err: errors.New("fetch failed")}, nil, nil, "vision-model", time.Hour)

		_, err := a.AnalyzeImage(ctx, ref)

		require.Error(t, err)
		assert.Equal(t, domain.KindNetwork, domain.Classify(err))
	})

	t.Run("テキスト候補のないレスポンスはデコードエラーなのだ", func(t *testing.T) {
		ai := &mockAIClient{text: ""}
		a, _ := NewAnalyzer(ai, &mockHTTPClient{data: []byte("x")}, nil, nil, "vision-model", time.Hour)

		_, err := a.AnalyzeImage(ctx, ref)

		require.Error(t, err)
		assert.Equal(t, domain.KindDecoding, domain.Classify(err))
	})

	t.Run("不正なスキームのURLは拒否されるのだ", func(t *testing.T) {
		ai := &mockAIClient{text: "unused"}
		a, _ := NewAnalyzer(ai, &mockHTTPClient{data: []byte("x")}, nil, nil, "vision-model", time.Hour)

		_, err := a.AnalyzeImage(ctx, ImageRef{ImageID: "bad", URL: "gopher://example.com/x"})

		assert.Error(t, err)
	})
}

func TestNewAnalyzer(t *testing.T) {
	t.Run("aiClient は必須なのだ", func(t *testing.T) {
		_, err := NewAnalyzer(nil, &mockHTTPClient{}, nil, nil, "m", time.Hour)
		assert.Error(t, err)
	})

	t.Run("httpClient は必須なのだ", func(t *testing.T) {
		_, err := NewAnalyzer(&mockAIClient{}, nil, nil, nil, "m", time.Hour)
		assert.Error(t, err)
	})

	t.Run("cache と guard は nil を許容するのだ", func(t *testing.T) {
		_, err := NewAnalyzer(&mockAIClient{}, &mockHTTPClient{}, nil, nil, "m", time.Hour)
		assert.NoError(t, err)
	})
}

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"正常なパブリックURL", "https://www.example.com/image.png", false},
		{"不正なスキーム", "gopher://example.com", true},
		{"ループバック", "http://localhost/admin", true},
		{"プライベートIP (クラスA)", "http://10.255.255.254/metadata", true},
		{"名前解決できないドメイン", "http://this.should.not.exist.invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, err := IsSafeURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("IsSafeURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && safe {
				t.Errorf("%s: unsafe URL was flagged as safe", tt.url)
			}
		})
	}
}
