package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/saga-engine/pkg/chat"
	"github.com/jwebster45206/saga-engine/pkg/memory"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

// DefaultHistoryLimit is how many recent turns travel in the prompt.
const DefaultHistoryLimit = 6

// Builder assembles the bounded prompt for one turn using a fluent
// interface. It never touches the network; its output is handed to the
// request executor.
type Builder struct {
	gs             *state.GameState
	settings       *state.WorldSettings
	action         string
	specialContext string
	memories       []memory.Chunk
	historyLimit   int
}

// New creates a prompt builder with default settings.
func New() *Builder {
	return &Builder{historyLimit: DefaultHistoryLimit}
}

// WithState sets the game state.
func (b *Builder) WithState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithSettings sets the world settings.
func (b *Builder) WithSettings(ws *state.WorldSettings) *Builder {
	b.settings = ws
	return b
}

// WithAction sets the player's literal action text.
func (b *Builder) WithAction(action string) *Builder {
	b.action = action
	return b
}

// WithSpecialContext sets a priority instruction injected ahead of the
// player's action, e.g. narrating the aftermath of a finished combat.
func (b *Builder) WithSpecialContext(ctx string) *Builder {
	b.specialContext = ctx
	return b
}

// WithMemories sets the retrieved long-term memory chunks.
func (b *Builder) WithMemories(chunks []memory.Chunk) *Builder {
	b.memories = chunks
	return b
}

// WithHistoryLimit overrides the recent-turn window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the message array for the generative call.
func (b *Builder) Build() ([]chat.Message, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("game state is required")
	}
	if b.settings == nil {
		return nil, fmt.Errorf("world settings are required")
	}
	if b.action == "" && b.specialContext == "" {
		return nil, fmt.Errorf("an action or special context is required")
	}

	messages := make([]chat.Message, 0, b.historyLimit*2+4)

	messages = append(messages, chat.Message{
		Role:    chat.RoleSystem,
		Content: b.systemPrompt(),
	})

	statePrompt, err := b.statePrompt()
	if err != nil {
		return nil, err
	}
	messages = append(messages, statePrompt)

	messages = append(messages, chat.Message{
		Role:    chat.RoleSystem,
		Content: b.memoryPrompt(),
	})

	messages = append(messages, b.history()...)

	if b.specialContext != "" {
		messages = append(messages, chat.Message{
			Role:    chat.RoleSystem,
			Content: "PRIORITY: " + b.specialContext,
		})
	}
	if b.action != "" {
		messages = append(messages, chat.Message{
			Role:    chat.RoleUser,
			Content: b.action,
		})
	}

	return messages, nil
}

func (b *Builder) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(BaseSystemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(TemplateFor(b.settings.Genre))

	if b.settings.Setting != "" {
		sb.WriteString("\n\nSetting: " + b.settings.Setting)
	}
	if b.settings.Difficulty != "" {
		sb.WriteString("\nDifficulty: " + b.settings.Difficulty)
	}
	if b.settings.NarrativeVoice != "" {
		sb.WriteString("\nNarrative voice: " + b.settings.NarrativeVoice)
	}
	if b.settings.WritingStyle != "" {
		sb.WriteString("\nWriting style: " + b.settings.WritingStyle)
	}
	if len(b.settings.LoreRules) > 0 {
		sb.WriteString("\n\nWorld rules:\n")
		for i, rule := range b.settings.LoreRules {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, rule))
		}
	}
	if b.settings.Fanfic != nil {
		fan, err := json.Marshal(b.settings.Fanfic)
		if err == nil {
			sb.WriteString("\n\nCanon state:\n" + string(fan))
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(ResponseContract)
	return sb.String()
}

func (b *Builder) statePrompt() (chat.Message, error) {
	ps := ToPromptState(b.gs)
	data, err := json.Marshal(ps)
	if err != nil {
		return chat.Message{}, fmt.Errorf("failed to marshal prompt state: %w", err)
	}
	return chat.Message{
		Role:    chat.RoleSystem,
		Content: "Current game state:\n```json\n" + string(data) + "\n```",
	}, nil
}

func (b *Builder) memoryPrompt() string {
	if len(b.memories) == 0 {
		return NoMemoryMarker
	}
	var sb strings.Builder
	sb.WriteString("Relevant events from earlier in the story:\n")
	for _, c := range b.memories {
		sb.WriteString(fmt.Sprintf("- (turns %d-%d) %s\n", c.TurnStart, c.TurnEnd, c.Content))
	}
	return sb.String()
}

// history converts the most recent turns into alternating user/model
// messages, windowed to the history limit.
func (b *Builder) history() []chat.Message {
	turns := b.gs.Turns
	if len(turns) > b.historyLimit {
		turns = turns[len(turns)-b.historyLimit:]
	}
	messages := make([]chat.Message, 0, len(turns)*2)
	for _, t := range turns {
		if t.ChosenAction != "" {
			messages = append(messages, chat.Message{Role: chat.RoleUser, Content: t.ChosenAction})
		}
		messages = append(messages, chat.Message{Role: chat.RoleModel, Content: t.Story})
	}
	return messages
}
