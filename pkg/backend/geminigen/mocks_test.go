package geminigen

import (
	"context"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockAIClient struct {
	imageData []byte
	mimeType  string
	textOnly  bool
	err       error
	callCount int
	lastText  string
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.callCount++
	if len(parts) > 0 && parts[0] != nil {
		m.lastText = parts[0].Text
	}
	if m.err != nil {
		return nil, m.err
	}

	var part *genai.Part
	if m.textOnly {
		part = &genai.Part{Text: "no image here"}
	} else {
		part = &genai.Part{InlineData: &genai.Blob{MIMEType: m.mimeType, Data: m.imageData}}
	}

	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{part}},
			}},
		},
	}, nil
}

func (m *mockAIClient) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	return nil, nil
}

func (m *mockAIClient) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error) {
	return "", "", nil
}

func (m *mockAIClient) DeleteFile(ctx context.Context, name string) error {
	return nil
}

func (m *mockAIClient) GetFile(ctx context.Context, name string) (*genai.File, error) {
	return nil, nil
}
