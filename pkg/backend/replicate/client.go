// Package replicate は非同期ジョブ型の画像生成APIクライアントです。
// POSTでジョブを作成し、ステータスURLを1秒間隔でポーリングして、
// 成功時は最初の出力URLをダウンロードします。
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-swipe-art-kit/pkg/backend"
	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// Fetcher は出力画像のダウンロードに使う依存です。httpkit.ClientInterface が満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// BackendName はカスケードが参照するバックエンド識別子です。
const BackendName = "replicate"

const (
	defaultBaseURL         = "https://api.replicate.com"
	defaultPollInterval    = time.Second
	defaultMaxPollAttempts = 60
)

// ジョブの終端ステータスです。
const (
	statusStarting   = "starting"
	statusProcessing = "processing"
	statusSucceeded  = "succeeded"
	statusFailed     = "failed"
	statusCanceled   = "canceled"
)

// Options は Client の構築パラメータです。ゼロ値はデフォルトに置き換わります。
type Options struct {
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
	Fetcher         Fetcher // 出力画像のダウンロードに使う
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Client は非同期生成ジョブのライフサイクル全体を扱います。
type Client struct {
	httpClient      *http.Client
	fetcher         Fetcher
	apiKey          string
	baseURL         string
	pollInterval    time.Duration
	maxPollAttempts int
}

// New は Client を初期化します。Fetcher は必須です。
func New(opts Options) (*Client, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxPollAttempts := opts.MaxPollAttempts
	if maxPollAttempts <= 0 {
		maxPollAttempts = defaultMaxPollAttempts
	}

	return &Client{
		httpClient:      httpClient,
		fetcher:         opts.Fetcher,
		apiKey:          opts.APIKey,
		baseURL:         baseURL,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
	}, nil
}

// Name はバックエンド識別子を返します。
func (c *Client) Name() string { return BackendName }

// prediction は作成・ポーリング共通のジョブレスポンスです。
type prediction struct {
	ID     string            `json:"id"`
	Status string            `json:"status"`
	Error  string            `json:"error"`
	Output json.RawMessage   `json:"output"`
	URLs   map[string]string `json:"urls"`
}

// Generate はジョブを作成し、完了までポーリングして画像を返します。
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if err := backend.ValidateCredential(BackendName, "replicate api key", c.apiKey); err != nil {
		return nil, err
	}

	job, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.Info("生成ジョブを作成しました", "backend", BackendName, "job_id", job.ID)

	final, err := c.pollUntilTerminal(ctx, job)
	if err != nil {
		return nil, err
	}

	outputURL, err := firstOutputURL(final.Output)
	if err != nil {
		return nil, err
	}

	data, err := c.fetcher.FetchBytes(ctx, outputURL)
	if err != nil {
		return nil, domain.Errorf(domain.KindNetwork, BackendName,
			"failed to download output image: %w", err)
	}

	return &domain.GenerationResult{
		Data:     data,
		MimeType: http.DetectContentType(data),
		Prompt:   req.Prompt,
		Backend:  BackendName,
	}, nil
}

// submit はジョブ作成のPOSTを行います。
func (c *Client) submit(ctx context.Context, req domain.GenerationRequest) (*prediction, error) {
	payload := map[string]any{
		"version": req.Model.Version,
		"input":   inputFor(req),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.Errorf(domain.KindDecoding, BackendName, "failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, domain.Errorf(domain.KindNetwork, BackendName, "failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)

	return c.doPredictionRequest(httpReq)
}

// pollUntilTerminal はステータスが starting/processing を抜けるまでポーリングします。
// 上限回数を超えた場合は Timeout エラーになります。
func (c *Client) pollUntilTerminal(ctx context.Context, job *prediction) (*prediction, error) {
	pollURL := job.URLs["get"]
	if pollURL == "" {
		pollURL = fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, job.ID)
	}

	current := job
	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		switch current.Status {
		case statusSucceeded:
			return current, nil
		case statusFailed:
			return nil, domain.Errorf(domain.KindUpstream, BackendName,
				"generation job failed: %s", current.Error)
		case statusCanceled:
			return nil, domain.Errorf(domain.KindUpstream, BackendName, "generation job was canceled")
		case statusStarting, statusProcessing, "":
			// 進行中。待機して再取得する。
		default:
			return nil, domain.Errorf(domain.KindDecoding, BackendName,
				"unknown job status: %q", current.Status)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, domain.NewError(domain.KindTimeout, BackendName, ctx.Err())
		case <-timer.C:
		}

		next, err := c.poll(ctx, pollURL)
		if err != nil {
			return nil, err
		}
		current = next
	}

	return nil, domain.Errorf(domain.KindTimeout, BackendName,
		"job %s did not finish within %d poll attempts", job.ID, c.maxPollAttempts)
}

// poll はステータスURLを1回取得します。
func (c *Client) poll(ctx context.Context, pollURL string) (*prediction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return nil, domain.Errorf(domain.KindNetwork, BackendName, "failed to create poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)

	return c.doPredictionRequest(httpReq)
}

// doPredictionRequest はHTTP送信・ステータス検査・デコードの共通処理です。
func (c *Client) doPredictionRequest(req *http.Request) (*prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Errorf(domain.KindNetwork, BackendName, "request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, domain.Errorf(domain.KindFromStatus(resp.StatusCode), BackendName,
			"unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, domain.Errorf(domain.KindDecoding, BackendName, "failed to decode response: %w", err)
	}
	return &p, nil
}

// inputFor はモデルの入力形状に合わせてリクエストボディの input を組み立てます。
func inputFor(req domain.GenerationRequest) map[string]any {
	switch req.Model.Shape {
	case domain.ShapeSimpleText:
		return map[string]any{"prompt": req.Prompt}
	case domain.ShapeFlagOnly:
		return map[string]any{
			"prompt":                 req.Prompt,
			"disable_safety_checker": true,
		}
	default:
		// structuredImagen および未指定はフル形状で送る
		input := map[string]any{
			"prompt":        req.Prompt,
			"aspect_ratio":  req.AspectRatio,
			"output_format": "png",
			"num_outputs":   1,
		}
		if req.NegativePrompt != "" {
			input["negative_prompt"] = req.NegativePrompt
		}
		return input
	}
}

// firstOutputURL は output を文字列または文字列配列として柔軟にデコードし、
// 最初のURLを返します。
func firstOutputURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", domain.Errorf(domain.KindDecoding, BackendName, "succeeded job has no output")
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}

	return "", domain.Errorf(domain.KindDecoding, BackendName, "unrecognized output format: %s", string(raw))
}
