package services

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

	"github.com/jwebster45206/saga-engine/pkg/chat"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 4096
)

// AnthropicService implements LLMService for Anthropic Claude.
// Anthropic has no schema-constrained output mode, so the schema is
// embedded as a system directive; local validation catches drift.
type AnthropicService struct {
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

type anthropicChatRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	Messages    []chat.Message `json:"messages"`
	System      string         `json:"system,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicService creates an Anthropic backend for the given
// default model.
func NewAnthropicService(modelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// splitSystemMessages extracts and joins system messages into a single
// system prompt and returns the remaining conversation messages with
// roles mapped to Anthropic's user/assistant pair.
func splitSystemMessages(messages []chat.Message) (string, []chat.Message) {
	var systemParts []string
	var conversation []chat.Message

	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case chat.RoleModel:
			conversation = append(conversation, chat.Message{Role: "assistant", Content: msg.Content})
		default:
			conversation = append(conversation, chat.Message{Role: "user", Content: msg.Content})
		}
	}

	return strings.Join(systemParts, "\n\n"), conversation
}

// GenerateStructured performs one generation attempt against Claude.
func (a *AnthropicService) GenerateStructured(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = a.modelName
	}

	systemPrompt, conversation := splitSystemMessages(req.Messages)

	if req.Schema != nil {
		schemaJSON, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		systemPrompt += "\n\nYour response must be a single JSON document conforming to this schema:\n" + string(schemaJSON)
	}

	temperature := DefaultAnthropicTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}

	anthropicReq := anthropicChatRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages:    conversation,
		System:      systemPrompt,
		Stream:      false,
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicBaseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError("anthropic generate", resp.StatusCode, truncate(string(body), 512))
	}

	var anthropicResp anthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, FormatError("anthropic generate", fmt.Sprintf("failed to parse response: %v", err))
	}
	if anthropicResp.Error != nil {
		return nil, FormatError("anthropic generate", anthropicResp.Error.Message)
	}

	var text string
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &GenerateResponse{
		Text:  text,
		Usage: Usage{TotalTokens: anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens},
	}, nil
}
