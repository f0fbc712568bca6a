package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/saga-engine/pkg/chat"
)

func executorLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestExecutor(llm LLMService, keys ...string) *Executor {
	pool := NewKeyPool(keys, "")
	e := NewExecutor(llm, pool, executorLogger())
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e
}

func baseRequest() GenerateRequest {
	return GenerateRequest{
		Model:    "gemini-2.5-flash",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "look around"}},
	}
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	mock := NewMockLLM()
	mock.Responses = []MockResult{{Response: &GenerateResponse{Text: `{"story":"ok"}`}}}
	e := newTestExecutor(mock, "k1", "k2")

	resp, err := e.Execute(context.Background(), baseRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != `{"story":"ok"}` {
		t.Errorf("unexpected response text %q", resp.Text)
	}
	if e.RequestCount() != 1 {
		t.Errorf("request count = %d, want 1", e.RequestCount())
	}
	if mock.Calls[0].APIKey != "k1" {
		t.Errorf("used key %q, want k1", mock.Calls[0].APIKey)
	}
}

func TestExecute_CredentialErrorRotatesThroughAllKeys(t *testing.T) {
	mock := NewMockLLM()
	mock.GenerateFunc = func(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
		return nil, NewAPIError("generate", 429, "quota exhausted")
	}
	e := newTestExecutor(mock, "k1", "k2", "k3")

	var notices []string
	_, err := e.Execute(context.Background(), baseRequest(), func(s string) { notices = append(notices, s) })
	if err == nil {
		t.Fatal("expected an error")
	}
	if Classify(err) != KindCredential {
		t.Errorf("final error kind = %q, want credential", Classify(err))
	}

	// One attempt per key, no same-key retries.
	if e.RequestCount() != 3 {
		t.Errorf("request count = %d, want 3", e.RequestCount())
	}
	var keys []string
	for _, c := range mock.Calls {
		keys = append(keys, c.APIKey)
	}
	want := []string{"k1", "k2", "k3"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key order = %v, want %v", keys, want)
		}
	}
	if len(notices) != 3 {
		t.Errorf("got %d rotation notices, want 3 (circular pool rotates after the last key too)", len(notices))
	}
}

func TestExecute_TransientRetriesWithBackoff(t *testing.T) {
	mock := NewMockLLM()
	mock.GenerateFunc = func(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
		return nil, NewAPIError("generate", 503, "overloaded")
	}
	e := newTestExecutor(mock, "only")

	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := e.Execute(context.Background(), baseRequest(), nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if e.RequestCount() != 3 {
		t.Errorf("request count = %d, want 3 attempts on the same key", e.RequestCount())
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Errorf("backoff = %v, want [1s 2s]", slept)
	}
	for _, c := range mock.Calls {
		if c.APIKey != "only" {
			t.Errorf("transient retry changed keys: %q", c.APIKey)
		}
	}
}

func TestExecute_TransientThenSuccess(t *testing.T) {
	mock := NewMockLLM()
	mock.Responses = []MockResult{
		{Err: NewAPIError("generate", 500, "hiccup")},
		{Response: &GenerateResponse{Text: `{"story":"ok"}`}},
	}
	e := newTestExecutor(mock, "only")

	var notices []string
	resp, err := e.Execute(context.Background(), baseRequest(), func(s string) { notices = append(notices, s) })
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != `{"story":"ok"}` {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if e.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", e.RequestCount())
	}
	if len(notices) != 1 || !strings.Contains(notices[0], "retrying") {
		t.Errorf("notices = %v", notices)
	}
}

func TestExecute_FormatRetryAddsCorrection(t *testing.T) {
	mock := NewMockLLM()
	mock.GenerateFunc = func(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
		return &GenerateResponse{Text: "I cannot answer in JSON."}, nil
	}
	e := newTestExecutor(mock, "only")

	req := baseRequest()
	req.CheckFormat = func(text string) error {
		if !strings.HasPrefix(text, "{") {
			return errors.New("response is not a JSON object")
		}
		return nil
	}

	_, err := e.Execute(context.Background(), req, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if Classify(err) != KindFormat {
		t.Errorf("final error kind = %q, want format", Classify(err))
	}
	if e.RequestCount() != 3 {
		t.Fatalf("request count = %d, want 3", e.RequestCount())
	}

	// First attempt carries the original messages only.
	if n := len(mock.Calls[0].Request.Messages); n != 1 {
		t.Errorf("attempt 1 had %d messages, want 1", n)
	}
	// Each retry appends a correction directive quoting the failure.
	second := mock.Calls[1].Request.Messages
	if len(second) != 2 || second[1].Role != chat.RoleSystem ||
		!strings.Contains(second[1].Content, "rejected") ||
		!strings.Contains(second[1].Content, "not a JSON object") {
		t.Errorf("attempt 2 missing correction: %+v", second)
	}
	if n := len(mock.Calls[2].Request.Messages); n != 3 {
		t.Errorf("attempt 3 had %d messages, want 3", n)
	}

	// Final retry drops the temperature for determinism.
	if temp := mock.Calls[2].Request.Temperature; temp == nil || *temp != 0.1 {
		t.Errorf("attempt 3 temperature = %v, want 0.1", temp)
	}
	if mock.Calls[1].Request.Temperature != nil {
		t.Error("attempt 2 must keep the original temperature")
	}
}

func TestExecute_EmptyResponseCountsAsFormatError(t *testing.T) {
	mock := NewMockLLM()
	mock.Responses = []MockResult{
		{Response: &GenerateResponse{Text: "   \n"}},
		{Response: &GenerateResponse{Text: `{"story":"recovered"}`}},
	}
	e := newTestExecutor(mock, "only")

	resp, err := e.Execute(context.Background(), baseRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != `{"story":"recovered"}` {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if e.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", e.RequestCount())
	}
}

func TestExecute_EmptyPool(t *testing.T) {
	mock := NewMockLLM()
	e := NewExecutor(mock, NewKeyPool(nil, ""), executorLogger())

	_, err := e.Execute(context.Background(), baseRequest(), nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindCredential {
		t.Fatalf("expected a credential error, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Error("an empty pool must never reach the backend")
	}
}

func TestExecute_FatalMovesToNextKey(t *testing.T) {
	mock := NewMockLLM()
	mock.GenerateFunc = func(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
		if apiKey == "k2" {
			return &GenerateResponse{Text: `{"story":"ok"}`}, nil
		}
		return nil, fmt.Errorf("model %q not found", req.Model)
	}
	e := newTestExecutor(mock, "k1", "k2")

	resp, err := e.Execute(context.Background(), baseRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != `{"story":"ok"}` {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if e.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2 (no same-key retry on fatal)", e.RequestCount())
	}
}

func TestExecute_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := NewMockLLM()
	mock.GenerateFunc = func(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
		cancel()
		return nil, NewAPIError("generate", 503, "overloaded")
	}
	e := newTestExecutor(mock, "k1", "k2")

	_, err := e.Execute(ctx, baseRequest(), nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if e.RequestCount() != 1 {
		t.Errorf("request count = %d, want 1 after cancellation", e.RequestCount())
	}
}
