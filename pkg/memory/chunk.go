// Package memory implements the long-term memory index: old turns are
// periodically compressed into keyword-indexed summary chunks, and the
// best-matching chunks are retrieved as auxiliary context for new
// actions.
package memory

import (
	"fmt"

	"github.com/google/uuid"
)

// ChunkInterval is the number of turns summarized into one chunk. A
// chunk is created only when the turn count is a positive multiple of
// this interval.
const ChunkInterval = 15

// MaxRelevant caps how many chunks a retrieval returns.
const MaxRelevant = 3

// Chunk is a compressed, keyword-indexed summary of a contiguous range
// of past turns. Chunks are immutable once created.
type Chunk struct {
	ID        string   `json:"id"`
	SaveID    string   `json:"save_id"`
	TurnStart int      `json:"turn_start"`
	TurnEnd   int      `json:"turn_end"`
	Content   string   `json:"content"`
	Keywords  []string `json:"keywords"` // lowercase
}

// ChunkID derives the deterministic chunk key from the save and the
// ending turn number, making chunk creation idempotent.
func ChunkID(saveID uuid.UUID, turnEnd int) string {
	return fmt.Sprintf("chunk:%s:%d", saveID.String(), turnEnd)
}
