// Package geminigen は Gemini ネイティブ画像生成API（同期型クライアント）です。
// カスケードの第一優先バックエンドとして使われます。
package geminigen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// BackendName はカスケードが参照するバックエンド識別子です。
const BackendName = "gemini"

// Client は go-gemini-client を介した同期画像生成クライアントです。
type Client struct {
	aiClient gemini.GenerativeModel
	model    string
	provider *CredentialProvider // 呼び出し前の認証情報解決（トークン優先・静的キー退避）
}

// New は依存関係を注入して Client を初期化します。
// 認証は静的キーのみで行います。短命トークンを併用する場合は
// NewWithTokenSource を使ってください。
func New(aiClient gemini.GenerativeModel, model, apiKey string) (*Client, error) {
	return NewWithTokenSource(aiClient, model, nil, apiKey)
}

// NewWithTokenSource は短命ベアラートークンの発行元を併用する Client を初期化します。
// トークン発行に失敗した場合は fallbackKey へ切り替わります。
func NewWithTokenSource(aiClient gemini.GenerativeModel, model string, source TokenSource, fallbackKey string) (*Client, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &Client{
		aiClient: aiClient,
		model:    model,
		provider: NewCredentialProvider(source, fallbackKey, nil),
	}, nil
}

// Name はバックエンド識別子を返します。
func (c *Client) Name() string { return BackendName }

// Generate は1回のHTTP POSTで画像を生成します。
// 認証情報の解決（トークン発行または静的キー検査）はネットワーク呼び出し前に
// 行い、未設定・プレースホルダの場合は Configuration エラーで失敗します。
// リクエストへの認証情報の付与は aiClient 側が担うため、ここでは解決結果の
// 有効性だけを確認します。
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if _, err := c.provider.Credential(ctx); err != nil {
		return nil, err
	}

	parts := []*genai.Part{{Text: buildPromptText(req)}}
	opts := gemini.GenerateOptions{AspectRatio: req.AspectRatio}

	resp, err := c.aiClient.GenerateWithParts(ctx, c.model, parts, opts)
	if err != nil {
		return nil, classifyTransport(err)
	}

	data, mimeType, err := extractImage(resp)
	if err != nil {
		return nil, err
	}

	return &domain.GenerationResult{
		Data:     data,
		MimeType: mimeType,
		Prompt:   req.Prompt,
		Backend:  BackendName,
	}, nil
}

// buildPromptText はネガティブプロンプトを追記した最終テキストを作ります。
// Gemini ネイティブAPIは negative_prompt フィールドを持たないため、
// 指示文として合成します。
func buildPromptText(req domain.GenerationRequest) string {
	if req.NegativePrompt == "" {
		return req.Prompt
	}
	return fmt.Sprintf("%s\nAvoid: %s", req.Prompt, req.NegativePrompt)
}

// extractImage はレスポンス候補から最初の画像パートを取り出します。
func extractImage(resp *gemini.Response) ([]byte, string, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, "", domain.Errorf(domain.KindDecoding, BackendName, "response has no candidates")
	}

	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content == nil {
		return nil, "", domain.Errorf(domain.KindDecoding, BackendName, "candidate has no content")
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
	}
	return nil, "", domain.Errorf(domain.KindDecoding, BackendName, "no image data in response")
}

// classifyTransport はクライアントライブラリからのエラーを失敗分類へ写像します。
func classifyTransport(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewError(domain.KindTimeout, BackendName, err)
	case errors.Is(err, context.Canceled):
		return domain.NewError(domain.KindTimeout, BackendName, err)
	case isAuthMessage(err):
		return domain.NewError(domain.KindAuthentication, BackendName, err)
	default:
		return domain.NewError(domain.KindNetwork, BackendName, err)
	}
}

// isAuthMessage はSDKがステータスを文字列でしか返さない場合の判定です。
func isAuthMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthenticated") ||
		strings.Contains(msg, "permission denied")
}
