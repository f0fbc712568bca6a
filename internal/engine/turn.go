package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/jwebster45206/saga-engine/internal/services"
	"github.com/jwebster45206/saga-engine/pkg/chat"
	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/memory"
	"github.com/jwebster45206/saga-engine/pkg/prompts"
	"github.com/jwebster45206/saga-engine/pkg/state"
	"github.com/jwebster45206/saga-engine/pkg/textfilter"
)

// backgroundTimeout bounds the fire-and-forget summarization task.
const backgroundTimeout = 2 * time.Minute

// ProcessTurn resolves one player action against a save. While the
// save is in combat the action goes to the local resolver; otherwise
// it goes through the generative pipeline. On any error the previous
// state remains the last known good state.
func (e *Engine) ProcessTurn(ctx context.Context, req chat.TurnRequest, notify func(string)) (*chat.TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid turn request: %w", err)
	}

	if !e.acquire(req.SaveID) {
		return nil, ErrTurnInProgress
	}
	defer e.release(req.SaveID)

	save, err := e.storage.GetSave(ctx, req.SaveID)
	if err != nil {
		return nil, fmt.Errorf("while loading save: %w", err)
	}
	if save == nil || save.State == nil {
		return nil, fmt.Errorf("%w: %s", ErrSaveNotFound, req.SaveID)
	}

	if save.State.IsInCombat {
		return e.processCombatTurn(ctx, save, req.Action, notify)
	}
	return e.processStoryTurn(ctx, save, req.Action, "", notify)
}

// processStoryTurn runs the full generative pipeline: memory
// retrieval, prompt assembly, execution, validation, delta apply,
// persistence, and the fire-and-forget chunk summarization.
func (e *Engine) processStoryTurn(ctx context.Context, save *state.SaveFile, action, specialContext string, notify func(string)) (*chat.TurnResponse, error) {
	gs := save.State

	memories, err := e.memIndex.FindRelevant(ctx, action, gs)
	if err != nil {
		// Retrieval is auxiliary context; a turn proceeds without it.
		e.logger.Error("Memory retrieval failed", "save_id", gs.ID.String(), "error", err)
		memories = nil
	}

	messages, err := prompts.New().
		WithState(gs).
		WithSettings(save.Settings).
		WithAction(action).
		WithSpecialContext(specialContext).
		WithMemories(memories).
		Build()
	if err != nil {
		return nil, fmt.Errorf("while building turn prompt: %w", err)
	}

	resp, err := e.executor.Execute(ctx, services.GenerateRequest{
		Model:    e.cfg.ModelName,
		Messages: messages,
		Schema:   prompts.TurnResponseSchema(),
		CheckFormat: func(text string) error {
			_, perr := state.ParseTurnDelta(text)
			return perr
		},
	}, notify)
	if err != nil {
		return nil, fmt.Errorf("while processing turn: %w", err)
	}

	delta, err := state.ParseTurnDelta(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("while parsing turn response: %w", err)
	}
	if err := delta.Validate(); err != nil {
		// A contract violation, not a parsing hiccup: fatal for the
		// turn, no state mutation, no automatic retry.
		return nil, fmt.Errorf("while validating turn response: %w", err)
	}

	actionDescription := action
	if actionDescription == "" {
		actionDescription = specialContext
	}

	newState, newSettings, err := state.NewDeltaWorker(gs, save.Settings, delta, e.logger).
		WithAutoPin(e.cfg.AutoPinMemories).
		WithExtension(state.ExtensionFor(save.Settings.Genre)).
		Apply(actionDescription, resp.Usage.TotalTokens)
	if err != nil {
		return nil, fmt.Errorf("while applying turn: %w", err)
	}

	save.State = newState
	save.Settings = newSettings
	if err := e.storage.PutSave(ctx, save); err != nil {
		return nil, fmt.Errorf("while saving turn result: %w", err)
	}

	e.scheduleChunkSummarization(newState)

	return &chat.TurnResponse{
		SaveID:     newState.ID,
		Story:      textfilter.StripTags(delta.Story),
		Actions:    newState.Actions,
		InCombat:   newState.IsInCombat,
		TokenCount: resp.Usage.TotalTokens,
	}, nil
}

// combatActions are the suggested moves while an encounter is active.
var combatActions = []string{"Attack", "Defend", "Flee"}

// processCombatTurn resolves the action locally, no generative call.
// When the encounter reaches a terminal state the combat flags are
// cleared and exactly one follow-up generative turn narrates the
// aftermath.
func (e *Engine) processCombatTurn(ctx context.Context, save *state.SaveFile, action string, notify func(string)) (*chat.TurnResponse, error) {
	working, err := save.State.DeepCopy()
	if err != nil {
		return nil, fmt.Errorf("while copying combat state: %w", err)
	}

	src := rand.New(rand.NewSource(combatSeed(working)))
	result, err := combat.Resolve(working, action, src)
	if err != nil {
		// No resolvable opponent is fatal for this action; combat
		// state stays untouched.
		return nil, fmt.Errorf("while resolving combat: %w", err)
	}

	if !result.ShouldEnd {
		save.State = working
		if err := e.storage.PutSave(ctx, save); err != nil {
			return nil, fmt.Errorf("while saving combat result: %w", err)
		}
		return &chat.TurnResponse{
			SaveID:    working.ID,
			Story:     "",
			Actions:   combatActions,
			InCombat:  true,
			CombatLog: result.Log,
		}, nil
	}

	// Terminal state: clear the combat sub-state machine, persist,
	// then narrate the conclusion with a single generative turn.
	conclusion := fmt.Sprintf(
		"Combat has just ended with outcome %q against %s. Narrate the aftermath of the fight and its consequences. Combat log: %s",
		result.Outcome, result.OpponentID, joinLog(save.State.CombatLog, result.Log))

	working.IsInCombat = false
	working.CombatTurnNumber = 0
	working.Combatants = nil
	working.CombatLog = nil

	save.State = working
	if err := e.storage.PutSave(ctx, save); err != nil {
		return nil, fmt.Errorf("while saving combat result: %w", err)
	}

	resp, err := e.processStoryTurn(ctx, save, action, conclusion, notify)
	if err != nil {
		return nil, err
	}
	resp.CombatLog = result.Log
	return resp, nil
}

// combatSeed derives a reproducible RNG seed for one combat turn.
func combatSeed(gs *state.GameState) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(gs.ID.String()))
	_, _ = h.Write([]byte{byte(gs.CombatTurnNumber), byte(gs.CombatTurnNumber >> 8)})
	return int64(h.Sum64())
}

func joinLog(prior, current []string) string {
	var all []string
	all = append(all, prior...)
	all = append(all, current...)
	out := ""
	for i, line := range all {
		if i > 0 {
			out += " "
		}
		out += line
	}
	return out
}

// scheduleChunkSummarization fires the background memory-chunk task
// for the new state. It must never block or fail the visible turn:
// it runs on its own context with its own error boundary, and a newer
// turn for the same save cancels the previous task.
func (e *Engine) scheduleChunkSummarization(gs *state.GameState) {
	if len(gs.Turns) == 0 || len(gs.Turns)%memory.ChunkInterval != 0 {
		return
	}

	gsCopy, err := gs.DeepCopy()
	if err != nil {
		e.logger.Error("Failed to copy state for background summarization",
			"save_id", gs.ID.String(), "error", err)
		return
	}

	e.bgMu.Lock()
	if cancel, ok := e.bgCancel[gs.ID]; ok {
		cancel()
	}
	bgCtx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	e.bgCancel[gs.ID] = cancel
	e.bgMu.Unlock()

	go func() {
		defer cancel()
		e.memIndex.MaybeCreateChunk(bgCtx, gsCopy)
	}()
}
