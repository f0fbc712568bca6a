package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jwebster45206/saga-engine/pkg/state"
	"github.com/jwebster45206/saga-engine/pkg/textfilter"
)

// Store is the chunk persistence the index needs: put by key plus
// retrieval through the keyword index.
type Store interface {
	PutMemoryChunk(ctx context.Context, chunk Chunk) error
	MemoryChunksByKeywords(ctx context.Context, saveID string, keywords []string) ([]Chunk, error)
}

// Summarizer produces a compressed summary and keyword list for a
// turn transcript. Implemented by the request executor adapter.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (summary string, keywords []string, err error)
}

// Index creates and retrieves long-term memory chunks.
type Index struct {
	store      Store
	summarizer Summarizer
	logger     *slog.Logger
}

// NewIndex creates a memory index.
func NewIndex(store Store, summarizer Summarizer, logger *slog.Logger) *Index {
	return &Index{
		store:      store,
		summarizer: summarizer,
		logger:     logger,
	}
}

// MaybeCreateChunk compresses the most recent ChunkInterval turns into
// a chunk when the turn count has just crossed a chunk boundary. It is
// a background concern: failures are logged and dropped, never
// surfaced to the turn that triggered them. Chunk IDs are
// deterministic, so re-running for the same boundary overwrites the
// same chunk instead of duplicating it.
func (idx *Index) MaybeCreateChunk(ctx context.Context, gs *state.GameState) {
	n := len(gs.Turns)
	if n == 0 || n%ChunkInterval != 0 {
		return
	}

	start := n - ChunkInterval
	transcript := buildTranscript(gs.Turns[start:])

	summary, keywords, err := idx.summarizer.Summarize(ctx, transcript)
	if err != nil {
		idx.logger.Error("Memory chunk summarization failed",
			"save_id", gs.ID.String(), "turn_end", n, "error", err)
		return
	}
	if strings.TrimSpace(summary) == "" {
		idx.logger.Warn("Memory chunk summarization returned empty summary",
			"save_id", gs.ID.String(), "turn_end", n)
		return
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = textfilter.Fold(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}

	chunk := Chunk{
		ID:        ChunkID(gs.ID, n),
		SaveID:    gs.ID.String(),
		TurnStart: start + 1,
		TurnEnd:   n,
		Content:   summary,
		Keywords:  lowered,
	}
	if err := idx.store.PutMemoryChunk(ctx, chunk); err != nil {
		idx.logger.Error("Failed to persist memory chunk",
			"save_id", gs.ID.String(), "chunk_id", chunk.ID, "error", err)
		return
	}
	idx.logger.Debug("Created memory chunk",
		"save_id", gs.ID.String(), "chunk_id", chunk.ID, "keywords", lowered)
}

// FindRelevant retrieves up to MaxRelevant chunks whose keyword sets
// intersect the query's, ranked by descending intersection size with a
// stable tie-break. Returns nil when no chunks match.
func (idx *Index) FindRelevant(ctx context.Context, query string, gs *state.GameState) ([]Chunk, error) {
	keywords := QueryKeywords(query, gs.EntityNames())
	if len(keywords) == 0 {
		return nil, nil
	}

	candidates, err := idx.store.MemoryChunksByKeywords(ctx, gs.ID.String(), keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory chunks: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	querySet := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		querySet[kw] = true
	}

	type scored struct {
		chunk Chunk
		score int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if s := Intersection(c.Keywords, querySet); s > 0 {
			ranked = append(ranked, scored{chunk: c, score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	limit := len(ranked)
	if limit > MaxRelevant {
		limit = MaxRelevant
	}
	result := make([]Chunk, 0, limit)
	for _, r := range ranked[:limit] {
		result = append(result, r.chunk)
	}
	return result, nil
}

func buildTranscript(turns []state.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		if t.ChosenAction != "" {
			sb.WriteString("> " + t.ChosenAction + "\n")
		}
		if t.Summary != "" {
			sb.WriteString(t.Summary + "\n")
		} else {
			sb.WriteString(t.Story + "\n")
		}
	}
	return sb.String()
}
