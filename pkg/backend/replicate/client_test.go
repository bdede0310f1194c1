package replicate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// mockFetcher は httpkit.ClientInterface のダウンロード部分を差し替えます。
type mockFetcher struct {
	data    []byte
	err     error
	lastURL string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.lastURL = url
	return m.data, m.err
}

func testRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:      "a pastel cat",
		AspectRatio: "1:1",
		Model: domain.ModelDescriptor{
			Name:    "flux-schnell",
			Backend: BackendName,
			Version: "black-forest-labs/flux-schnell",
			Shape:   domain.ShapeSimpleText,
		},
	}
}

func newTestClient(t *testing.T, serverURL string, fetcher *mockFetcher) *Client {
	t.Helper()
	c, err := New(Options{
		APIKey:          "r8_test_key",
		BaseURL:         serverURL,
		Fetcher:         fetcher,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 5,
	})
	require.NoError(t, err)
	return c
}

func TestClient_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("作成→ポーリング→ダウンロードの正常系なのだ", func(t *testing.T) {
		var polls atomic.Int32
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/v1/predictions":
				assert.Equal(t, "Token r8_test_key", r.Header.Get("Authorization"))

				var payload map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, "black-forest-labs/flux-schnell", payload["version"])

				w.WriteHeader(http.StatusCreated)
				fmt.Fprintf(w, `{"id":"job-1","status":"starting","urls":{"get":"%s/v1/predictions/job-1"}}`, server.URL)
			case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/job-1":
				if polls.Add(1) < 2 {
					fmt.Fprint(w, `{"id":"job-1","status":"processing"}`)
					return
				}
				fmt.Fprint(w, `{"id":"job-1","status":"succeeded","output":["https://cdn.example.com/out.png"]}`)
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		fetcher := &mockFetcher{data: []byte("png-bytes")}
		c := newTestClient(t, server.URL, fetcher)

		got, err := c.Generate(ctx, testRequest())

		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), got.Data)
		assert.Equal(t, "https://cdn.example.com/out.png", fetcher.lastURL)
		assert.Equal(t, BackendName, got.Backend)
		assert.Equal(t, "a pastel cat", got.Prompt)
	})

	t.Run("processing から抜けないジョブはタイムアウトエラーになるのだ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				fmt.Fprint(w, `{"id":"job-2","status":"starting"}`)
				return
			}
			fmt.Fprint(w, `{"id":"job-2","status":"processing"}`)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &mockFetcher{})

		_, err := c.Generate(ctx, testRequest())

		require.Error(t, err)
		assert.Equal(t, domain.KindTimeout, domain.Classify(err))
	})

	t.Run("failed ステータスは上流エラーメッセージを伝えるのだ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				fmt.Fprint(w, `{"id":"job-3","status":"starting"}`)
				return
			}
			fmt.Fprint(w, `{"id":"job-3","status":"failed","error":"NSFW content detected"}`)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &mockFetcher{})

		_, err := c.Generate(ctx, testRequest())

		require.Error(t, err)
		assert.Equal(t, domain.KindUpstream, domain.Classify(err))
		assert.Contains(t, err.Error(), "NSFW content detected")
	})

	t.Run("401 は認証エラーに分類されるのだ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, &mockFetcher{})

		_, err := c.Generate(ctx, testRequest())

		assert.Equal(t, domain.KindAuthentication, domain.Classify(err))
	})

	t.Run("プレースホルダキーはネットワーク前に設定エラーになるのだ", func(t *testing.T) {
		var called atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
		}))
		defer server.Close()

		c, err := New(Options{
			APIKey:  "YOUR_REPLICATE_KEY_HERE",
			BaseURL: server.URL,
			Fetcher: &mockFetcher{},
		})
		require.NoError(t, err)

		_, err = c.Generate(ctx, testRequest())

		assert.Equal(t, domain.KindConfiguration, domain.Classify(err))
		assert.False(t, called.Load(), "HTTPリクエストが発生しないこと")
	})
}

func TestFirstOutputURL(t *testing.T) {
	t.Run("文字列配列の先頭が採用されるのだ", func(t *testing.T) {
		got, err := firstOutputURL(json.RawMessage(`["https://a.example/1.png","https://a.example/2.png"]`))
		require.NoError(t, err)
		assert.Equal(t, "https://a.example/1.png", got)
	})

	t.Run("単一文字列もデコードできるのだ", func(t *testing.T) {
		got, err := firstOutputURL(json.RawMessage(`"https://a.example/only.png"`))
		require.NoError(t, err)
		assert.Equal(t, "https://a.example/only.png", got)
	})

	t.Run("outputが空ならデコードエラーなのだ", func(t *testing.T) {
		_, err := firstOutputURL(nil)
		assert.Equal(t, domain.KindDecoding, domain.Classify(err))
	})

	t.Run("未知の形はデコードエラーなのだ", func(t *testing.T) {
		_, err := firstOutputURL(json.RawMessage(`{"weird":true}`))
		assert.Equal(t, domain.KindDecoding, domain.Classify(err))
	})
}

func TestInputFor(t *testing.T) {
	t.Run("simpleText は prompt のみなのだ", func(t *testing.T) {
		req := testRequest()
		got := inputFor(req)
		assert.Equal(t, map[string]any{"prompt": "a pastel cat"}, got)
	})

	t.Run("structuredImagen はフル形状なのだ", func(t *testing.T) {
		req := testRequest()
		req.Model.Shape = domain.ShapeStructuredImagen
		req.NegativePrompt = "blurry"

		got := inputFor(req)

		assert.Equal(t, "a pastel cat", got["prompt"])
		assert.Equal(t, "1:1", got["aspect_ratio"])
		assert.Equal(t, "blurry", got["negative_prompt"])
	})

	t.Run("flagOnly はセーフティフラグ付きなのだ", func(t *testing.T) {
		req := testRequest()
		req.Model.Shape = domain.ShapeFlagOnly

		got := inputFor(req)

		assert.Equal(t, true, got["disable_safety_checker"])
	})
}
