// Package analysis はスワイプ対象画像の内容解析を行います。
// 画像をインラインで解析エンドポイントへ送信し、テキスト評価を
// EvaluationResult として評価履歴に積み上げます。
package analysis

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
	"github.com/shouni/go-swipe-art-kit/pkg/imgutil"
	"github.com/shouni/go-swipe-art-kit/pkg/rateguard"
)

const (
	// UseImageCompression は解析送信前のJPEG再圧縮を有効にします。
	UseImageCompression     = true
	ImageCompressionQuality = 75

	cacheKeyAnalysis = "analysis_text:"

	// defaultInstruction は1枚あたりの解析指示です。
	defaultInstruction = "Describe the artistic content of this image in 2-3 sentences: " +
		"the subject, art style, color palette, and overall mood. Be specific and concrete."
)

// HTTPClient は画像取得の依存です。httpkit.ClientInterface が満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// TextCacher は解析テキストをURL単位でキャッシュするためのインターフェースです。
type TextCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// ImageRef は解析対象の1枚を指します。
type ImageRef struct {
	ImageID   string
	URL       string
	Direction domain.SwipeDirection
}

// Analyzer は解析エンドポイントへの呼び出しとキャッシュを担うコンポーネントです。
type Analyzer struct {
	aiClient    gemini.GenerativeModel
	httpClient  HTTPClient
	cache       TextCacher
	guard       *rateguard.Guard
	model       string
	instruction string
	expiration  time.Duration

	now func() time.Time // テスト用に差し替え可能
}

// NewAnalyzer は依存関係を注入して Analyzer を初期化します。
// cache は nil を許容します（キャッシュなし動作）。guard も nil 許容です。
func NewAnalyzer(aiClient gemini.GenerativeModel, httpClient HTTPClient, cache TextCacher, guard *rateguard.Guard, model string, cacheTTL time.Duration) (*Analyzer, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &Analyzer{
		aiClient:    aiClient,
		httpClient:  httpClient,
		cache:       cache,
		guard:       guard,
		model:       model,
		instruction: defaultInstruction,
		expiration:  cacheTTL,
		now:         time.Now,
	}, nil
}

// AnalyzeImage は1枚の画像を解析してテキスト評価を返します。
// 解析パスのレートガードは待機型です（上限到達時はウィンドウ更新まで待つ）。
func (a *Analyzer) AnalyzeImage(ctx context.Context, ref ImageRef) (string, error) {
	if a.cache != nil {
		if val, ok := a.cache.Get(cacheKeyAnalysis + ref.URL); ok {
			if text, ok := val.(string); ok {
				return text, nil
			}
		}
	}

	if a.guard != nil {
		if err := a.guard.Allow(ctx); err != nil {
			return "", err
		}
	}

	data, err := a.fetchImageData(ctx, ref.URL)
	if err != nil {
		return "", domain.Errorf(domain.KindNetwork, "", "failed to fetch image %s: %w", ref.URL, err)
	}

	finalData := data
	if UseImageCompression {
		if compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality); err == nil {
			finalData = compressed
		}
	}

	parts := []*genai.Part{
		{Text: a.instruction},
		{InlineData: &genai.Blob{MIMEType: http.DetectContentType(finalData), Data: finalData}},
	}

	resp, err := a.aiClient.GenerateWithParts(ctx, a.model, parts, gemini.GenerateOptions{})
	if err != nil {
		return "", domain.Errorf(domain.KindNetwork, "", "analysis request failed: %w", err)
	}

	text := candidateText(resp)
	if text == "" {
		return "", domain.Errorf(domain.KindDecoding, "", "analysis response has no text candidate")
	}

	if a.cache != nil {
		a.cache.Set(cacheKeyAnalysis+ref.URL, text, a.expiration)
	}
	return text, nil
}

// fetchImageData はSSRF検査を通した上で画像を取得します。
func (a *Analyzer) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("unsafe image url: %w", err)
	}
	return a.httpClient.FetchBytes(ctx, rawURL)
}

// candidateText はレスポンス候補からテキストを連結して取り出します。
func candidateText(resp *gemini.Response) string {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return ""
	}
	candidate := resp.RawResponse.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// IsSafeURL は SSRF (Server-Side Request Forgery) 対策として URL を検証します。
// 許可されたスキーム (http, https) かつ、プライベートIPやループバックアドレスを
// ターゲットにしていないことを確認します。
func IsSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("url parse failed: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("scheme not allowed: %s", parsedURL.Scheme)
	}

	ips, err := net.LookupIP(parsedURL.Hostname())
	if err != nil {
		return false, fmt.Errorf("failed to resolve host '%s': %w", parsedURL.Hostname(), err)
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("restricted network access detected: %s", ip.String())
		}
	}

	return true, nil
}
