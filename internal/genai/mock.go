package genai

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MockGenerator is a Generator for testing. Responses and failures are
// scripted per call; all methods are safe for concurrent use.
type MockGenerator struct {
	mu sync.Mutex

	// TextResponses are returned in order; the last one repeats.
	TextResponses []string
	// TextErr fails every text call when set.
	TextErr error
	// TextErrOnCall fails only the Nth text call (1-indexed).
	TextErrOnCall int

	// ImageErr fails every image call when set.
	ImageErr error
	// ImageErrOnCall fails only the Nth image call (1-indexed).
	ImageErrOnCall int

	// TextFunc overrides scripted behavior entirely when set.
	TextFunc func(ctx context.Context, req TextRequest) (string, error)
	// ImageFunc overrides scripted behavior entirely when set.
	ImageFunc func(ctx context.Context, req ImageRequest) (string, error)

	textCalls  atomic.Int64
	imageCalls atomic.Int64

	// TextPrompts records every prompt seen, for assertions.
	TextPrompts []string
	// ImagePrompts records every image prompt seen, keyed order-preserving.
	ImagePrompts []string
}

// GenerateText returns the next scripted response.
func (m *MockGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	count := m.textCalls.Add(1)

	m.mu.Lock()
	m.TextPrompts = append(m.TextPrompts, req.Prompt)
	m.mu.Unlock()

	if m.TextFunc != nil {
		return m.TextFunc(ctx, req)
	}
	if m.TextErr != nil {
		return "", m.TextErr
	}
	if m.TextErrOnCall > 0 && int(count) == m.TextErrOnCall {
		return "", fmt.Errorf("mock text failure on call %d", count)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.TextResponses) == 0 {
		return "mock response", nil
	}
	idx := int(count) - 1
	if idx >= len(m.TextResponses) {
		idx = len(m.TextResponses) - 1
	}
	return m.TextResponses[idx], nil
}

// GenerateImage returns a deterministic reference per call.
func (m *MockGenerator) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	count := m.imageCalls.Add(1)

	m.mu.Lock()
	m.ImagePrompts = append(m.ImagePrompts, req.Prompt)
	m.mu.Unlock()

	if m.ImageFunc != nil {
		return m.ImageFunc(ctx, req)
	}
	if m.ImageErr != nil {
		return "", m.ImageErr
	}
	if m.ImageErrOnCall > 0 && int(count) == m.ImageErrOnCall {
		return "", fmt.Errorf("mock image failure on call %d", count)
	}

	return fmt.Sprintf("mock-%s-%d.png", req.Kind, count), nil
}

// TextCalls returns how many text calls were made.
func (m *MockGenerator) TextCalls() int { return int(m.textCalls.Load()) }

// ImageCalls returns how many image calls were made.
func (m *MockGenerator) ImageCalls() int { return int(m.imageCalls.Load()) }

var _ Generator = (*MockGenerator)(nil)
