package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jwebster45206/saga-engine/pkg/chat"
)

const (
	// attemptsPerKey bounds the inner retry loop: one initial attempt
	// plus two retries per credential.
	attemptsPerKey = 3

	// lowTemperature is applied on the last format-error retry to
	// make the output more deterministic.
	lowTemperature = 0.1
)

// backoffDelays are the waits before transient retries.
var backoffDelays = [...]time.Duration{time.Second, 2 * time.Second}

// Executor wraps a single logical generative call with bounded retry,
// error classification and credential rotation.
type Executor struct {
	llm    LLMService
	pool   *KeyPool
	logger *slog.Logger

	requests atomic.Int64

	// sleep is replaceable in tests. It must honor ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates a request executor over a backend and a
// credential pool.
func NewExecutor(llm LLMService, pool *KeyPool, logger *slog.Logger) *Executor {
	return &Executor{
		llm:    llm,
		pool:   pool,
		logger: logger,
		sleep:  ctxSleep,
	}
}

// RequestCount returns how many generation attempts have been made,
// successful or not. Each attempt counts exactly once.
func (e *Executor) RequestCount() int64 {
	return e.requests.Load()
}

// Execute performs the call with the full retry/rotation policy.
// notify, when non-nil, receives human-readable notices about
// transient recoveries (rotations, retries) as they happen.
func (e *Executor) Execute(ctx context.Context, req GenerateRequest, notify func(string)) (*GenerateResponse, error) {
	if e.pool.Len() == 0 {
		return nil, &APIError{Kind: KindCredential, Op: "generate", Message: "no API credentials configured"}
	}

	var lastErr error

	for keyAttempt := 0; keyAttempt < e.pool.Len(); keyAttempt++ {
		key := e.pool.Current()
		resp, err := e.tryKey(ctx, key, req, notify)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}

		if e.pool.Rotate() && notify != nil {
			notify("Switching to the next API credential.")
		}
	}

	return nil, lastErr
}

// tryKey runs the inner retry loop for a single credential.
func (e *Executor) tryKey(ctx context.Context, key string, req GenerateRequest, notify func(string)) (*GenerateResponse, error) {
	attemptReq := req
	var lastErr error

	for attempt := 0; attempt < attemptsPerKey; attempt++ {
		e.requests.Add(1)

		resp, err := e.llm.GenerateStructured(ctx, key, attemptReq)
		if err == nil && strings.TrimSpace(resp.Text) == "" {
			err = FormatError("generate", "empty response")
		}
		if err == nil && attemptReq.CheckFormat != nil {
			if ferr := attemptReq.CheckFormat(resp.Text); ferr != nil {
				err = FormatError("generate", ferr.Error())
			}
		}
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}

		kind := Classify(err)
		e.logger.Warn("Generation attempt failed",
			"attempt", attempt+1, "kind", string(kind), "error", err)

		switch kind {
		case KindCredential:
			// Never worth retrying on the same key.
			return nil, lastErr
		case KindTransient:
			if attempt == attemptsPerKey-1 {
				return nil, lastErr
			}
			if notify != nil {
				notify("The storyteller is briefly unavailable, retrying...")
			}
			if serr := e.sleep(ctx, backoffDelays[attempt]); serr != nil {
				return nil, lastErr
			}
		case KindFormat:
			if attempt == attemptsPerKey-1 {
				return nil, lastErr
			}
			attemptReq = withCorrection(attemptReq, err)
			if attempt == attemptsPerKey-2 {
				// Final retry: reduce sampling temperature for a
				// more deterministic response.
				t := lowTemperature
				attemptReq.Temperature = &t
			}
			if notify != nil {
				notify("The storyteller gave a malformed answer, asking again...")
			}
		default:
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// withCorrection re-issues the request augmented with a directive
// quoting the previous failure.
func withCorrection(req GenerateRequest, cause error) GenerateRequest {
	correction := fmt.Sprintf(
		"Your previous response was rejected: %s. Respond again with a single valid JSON object matching the required structure, and nothing else.",
		cause.Error())
	messages := make([]chat.Message, 0, len(req.Messages)+1)
	messages = append(messages, req.Messages...)
	messages = append(messages, chat.Message{Role: chat.RoleSystem, Content: correction})
	req.Messages = messages
	return req
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
