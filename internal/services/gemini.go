package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/saga-engine/pkg/chat"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	DefaultGeminiTemperature = 1.0
	DefaultGeminiMaxTokens   = 8192
)

// GeminiService implements LLMService for the Gemini API.
type GeminiService struct {
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   Schema   `json:"responseSchema,omitempty"`
}

type geminiGenerateRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiService creates a Gemini backend for the given default
// model.
func NewGeminiService(modelName string, logger *slog.Logger) *GeminiService {
	return &GeminiService{
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// splitMessages gathers system messages into one system instruction
// and converts the rest to Gemini content entries.
func splitMessages(messages []chat.Message) (*geminiContent, []geminiContent) {
	var systemParts []geminiPart
	var contents []geminiContent

	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			systemParts = append(systemParts, geminiPart{Text: msg.Content})
		case chat.RoleModel:
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}

	var system *geminiContent
	if len(systemParts) > 0 {
		system = &geminiContent{Parts: systemParts}
	}
	return system, contents
}

// GenerateStructured performs one generation attempt against Gemini.
func (g *GeminiService) GenerateStructured(ctx context.Context, apiKey string, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = g.modelName
	}

	system, contents := splitMessages(req.Messages)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultGeminiMaxTokens
	}
	cfg := &geminiGenerationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: maxTokens,
	}
	if req.Schema != nil {
		cfg.ResponseMimeType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	geminiReq := geminiGenerateRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig:  cfg,
	}

	reqBody, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", geminiBaseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError("gemini generate", resp.StatusCode, truncate(string(body), 512))
	}

	var geminiResp geminiGenerateResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, FormatError("gemini generate", fmt.Sprintf("failed to parse response: %v", err))
	}
	if geminiResp.Error != nil {
		return nil, NewAPIError("gemini generate", geminiResp.Error.Code, geminiResp.Error.Message)
	}
	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		return nil, &APIError{
			Kind:    KindFatal,
			Op:      "gemini generate",
			Message: "prompt blocked: " + geminiResp.PromptFeedback.BlockReason,
		}
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, FormatError("gemini generate", "no candidates in response")
	}

	var text string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text += part.Text
	}

	return &GenerateResponse{
		Text:  text,
		Usage: Usage{TotalTokens: geminiResp.UsageMetadata.TotalTokenCount},
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
