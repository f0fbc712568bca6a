package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/saga-engine/internal/services"
	"github.com/jwebster45206/saga-engine/pkg/chat"
	"github.com/jwebster45206/saga-engine/pkg/prompts"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

// executorSummarizer adapts the request executor to the memory
// index's Summarizer interface. Summaries run on the backend model at
// zero temperature for stable output.
type executorSummarizer struct {
	executor *services.Executor
	model    string
}

type summaryResponse struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

func (s *executorSummarizer) Summarize(ctx context.Context, transcript string) (string, []string, error) {
	temperature := 0.0
	resp, err := s.executor.Execute(ctx, services.GenerateRequest{
		Model:       s.model,
		Temperature: &temperature,
		Schema:      prompts.SummaryResponseSchema(),
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: prompts.SummarySystemPrompt},
			{Role: chat.RoleUser, Content: transcript},
		},
	}, nil)
	if err != nil {
		return "", nil, err
	}

	var parsed summaryResponse
	if err := json.Unmarshal([]byte(state.StripCodeFences(resp.Text)), &parsed); err != nil {
		return "", nil, fmt.Errorf("failed to parse summary response: %w", err)
	}
	return parsed.Summary, parsed.Keywords, nil
}
