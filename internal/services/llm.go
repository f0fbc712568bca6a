package services

import (
	"context"

	"github.com/jwebster45206/saga-engine/pkg/chat"
)

// Schema is a JSON-Schema-like structural contract passed to backends
// that support constrained output. The engine re-validates required
// fields locally regardless of backend enforcement.
type Schema map[string]interface{}

// GenerateRequest is one logical "generate structured content" call.
type GenerateRequest struct {
	Model       string
	Messages    []chat.Message
	Schema      Schema
	Temperature *float64
	MaxTokens   int

	// CheckFormat, when set, is run by the executor against the
	// response text. A failure counts as a recoverable format error
	// and feeds the retry loop; backends ignore this field.
	CheckFormat func(text string) error
}

// Usage is the backend's token accounting for one call.
type Usage struct {
	TotalTokens int `json:"total_tokens"`
}

// GenerateResponse is the raw result of a generative call. Text is
// expected to be a JSON document when a schema was supplied.
type GenerateResponse struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// LLMService is the interface to a generative backend. The API key is
// passed per call so the executor can rotate credentials without
// rebuilding the service.
type LLMService interface {
	// GenerateStructured performs one generation attempt.
	GenerateStructured(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error)
}
