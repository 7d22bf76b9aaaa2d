package app

import (
	"context"
	"sync"
)

// MockLLMClient is a scriptable LLMClient for tests and --mock mode.
// Responses are consumed in order; once exhausted the last one repeats.
// If RespondFunc is set it takes precedence over Responses.
type MockLLMClient struct {
	Responses   []string
	RespondFunc func(messages []Message) (string, error)

	mu    sync.Mutex
	calls [][]Message
}

func NewMockLLMClient(responses ...string) *MockLLMClient {
	return &MockLLMClient{Responses: responses}
}

func (c *MockLLMClient) Complete(ctx context.Context, messages []Message) (string, error) {
	return c.next(ctx, messages)
}

func (c *MockLLMClient) CompleteStreaming(ctx context.Context, messages []Message, onToken func(string)) (string, error) {
	text, err := c.next(ctx, messages)
	if err == nil && onToken != nil {
		onToken(text)
	}
	return text, err
}

// Calls returns a copy of every message list the mock has seen.
func (c *MockLLMClient) Calls() [][]Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]Message, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *MockLLMClient) next(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, messages)
	if c.RespondFunc != nil {
		return c.RespondFunc(messages)
	}
	if len(c.Responses) == 0 {
		return "", nil
	}
	idx := len(c.calls) - 1
	if idx >= len(c.Responses) {
		idx = len(c.Responses) - 1
	}
	return c.Responses[idx], nil
}
