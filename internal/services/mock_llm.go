package services

import (
	"context"
	"sync"
)

// MockLLM is a scripted LLMService for testing.
type MockLLM struct {
	// GenerateFunc, when set, handles every call.
	GenerateFunc func(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error)

	// Responses are returned in order when GenerateFunc is nil. Each
	// entry is either a response or an error. When the script runs
	// out, the last entry repeats.
	Responses []MockResult

	// Track calls for assertions.
	Calls []MockCall

	mu sync.Mutex
}

// MockResult is one scripted outcome.
type MockResult struct {
	Response *GenerateResponse
	Err      error
}

// MockCall records the arguments of one GenerateStructured call.
type MockCall struct {
	APIKey  string
	Request GenerateRequest
}

// NewMockLLM creates an empty mock.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// GenerateStructured records the call and returns the next scripted
// result.
func (m *MockLLM) GenerateStructured(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{APIKey: apiKey, Request: req})

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, apiKey, req)
	}

	if len(m.Responses) == 0 {
		return &GenerateResponse{Text: "{}"}, nil
	}
	idx := len(m.Calls) - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	r := m.Responses[idx]
	return r.Response, r.Err
}

// CallCount returns how many generation calls were made.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
