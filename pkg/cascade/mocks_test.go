package cascade

import (
	"context"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// --- Mocks ---

// mockBackend は失敗エラーの列を順番に返し、使い切ったら成功するモックです。
type mockBackend struct {
	name      string
	errs      []error // 呼び出しごとに消費される。空になったら成功。
	result    *domain.GenerationResult
	callCount int
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	m.callCount++
	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(domain.KindTimeout, m.name, err)
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.GenerationResult{
		Data:     []byte("mock-image"),
		MimeType: "image/png",
		Prompt:   req.Prompt,
		Backend:  m.name,
	}, nil
}

// blockingBackend はコンテキストが打ち切られるまで応答を返さないモックです。
type blockingBackend struct {
	name      string
	callCount int
}

func (b *blockingBackend) Name() string { return b.name }

func (b *blockingBackend) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	b.callCount++
	<-ctx.Done()
	return nil, domain.NewError(domain.KindTimeout, b.name, ctx.Err())
}

// failingBackend は常に同じエラーを返すモックです。
type failingBackend struct {
	name      string
	err       error
	callCount int
}

func (f *failingBackend) Name() string { return f.name }

func (f *failingBackend) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	f.callCount++
	return nil, f.err
}
