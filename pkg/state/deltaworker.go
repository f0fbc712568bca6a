package state

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/saga-engine/pkg/textfilter"
)

// ExtensionFunc is a genre-specific delta step. It runs as part of the
// ordered apply sequence, after quests and before character deltas,
// and must only touch the copies handed to it.
type ExtensionFunc func(gs *GameState, ws *WorldSettings, d *TurnDelta) error

// DeltaWorker applies a validated TurnDelta to a game state. It works
// on deep copies of its inputs, so a failure mid-apply leaves the
// caller's state untouched: Apply is all-or-nothing from the caller's
// perspective.
type DeltaWorker struct {
	prior     *GameState
	priorWS   *WorldSettings
	delta     *TurnDelta
	logger    *slog.Logger
	extension ExtensionFunc
	autoPin   bool
}

// NewDeltaWorker creates a worker for one turn application.
func NewDeltaWorker(gs *GameState, ws *WorldSettings, delta *TurnDelta, logger *slog.Logger) *DeltaWorker {
	return &DeltaWorker{
		prior:   gs,
		priorWS: ws,
		delta:   delta,
		logger:  logger,
	}
}

// WithAutoPin controls whether new memories extracted from turn
// summaries start pinned.
func (dw *DeltaWorker) WithAutoPin(autoPin bool) *DeltaWorker {
	dw.autoPin = autoPin
	return dw
}

// WithExtension sets the genre-specific apply step.
func (dw *DeltaWorker) WithExtension(ext ExtensionFunc) *DeltaWorker {
	dw.extension = ext
	return dw
}

// Apply runs the full ordered merge sequence and returns the new state
// and settings. The order of steps matters: later steps may reference
// the results of earlier ones within the same turn.
func (dw *DeltaWorker) Apply(actionDescription string, tokenCost int) (*GameState, *WorldSettings, error) {
	if err := dw.delta.Validate(); err != nil {
		return nil, nil, err
	}

	// Work on copies; the prior state backs the rollback history and
	// stays the last known good value if anything below fails.
	gs, err := dw.prior.DeepCopy()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to copy game state: %w", err)
	}
	ws := dw.copySettings()

	snapshot, err := dw.prior.DeepCopy()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to snapshot game state: %w", err)
	}
	snapshot.History = nil

	gs.GameTime = gs.GameTime.Advance(*dw.delta.TimeCostMinutes)
	if dw.delta.Weather != "" {
		gs.GameTime.Weather = dw.delta.Weather
	}

	dw.appendEntities(gs)
	dw.applyCombatDirective(gs)

	gs.Actions = append([]string(nil), dw.delta.Actions...)

	turn := Turn{
		ID:           uuid.New(),
		Story:        dw.delta.Story,
		ChosenAction: actionDescription,
		TokenCount:   tokenCost,
	}
	if dw.delta.Summary != nil {
		turn.Summary = dw.delta.Summary.Text
		turn.WorldEvent = dw.delta.Summary.WorldEvent
	}
	gs.Turns = append(gs.Turns, turn)

	if dw.delta.Summary != nil && dw.delta.Summary.Text != "" {
		gs.Memories = append(gs.Memories, Memory{
			Text:      dw.delta.Summary.Text,
			Pinned:    dw.autoPin,
			CreatedAt: time.Now(),
		})
	}

	gs.History = append(gs.History, snapshot)
	gs.TotalTokens += tokenCost

	dw.applyIntimateScene(gs)
	dw.applyKeyMemories(gs)

	gs.Quests = append(gs.Quests, dw.delta.NewQuests...)

	if dw.extension != nil {
		if err := dw.extension(gs, ws, dw.delta); err != nil {
			return nil, nil, fmt.Errorf("genre extension failed: %w", err)
		}
	}

	if err := dw.applyCharacterDeltas(gs); err != nil {
		return nil, nil, err
	}

	gs.UpdatedAt = time.Now()
	return gs, ws, nil
}

func (dw *DeltaWorker) copySettings() *WorldSettings {
	if dw.priorWS == nil {
		return nil
	}
	cp := *dw.priorWS
	if dw.priorWS.Fanfic != nil {
		fan := *dw.priorWS.Fanfic
		fan.Timeline = append([]CanonEvent(nil), dw.priorWS.Fanfic.Timeline...)
		cp.Fanfic = &fan
	}
	cp.LoreRules = append([]string(nil), dw.priorWS.LoreRules...)
	return &cp
}

// appendEntities adds newly introduced entities to the knowledge base.
// New characters pass through the same hydration as load-time.
func (dw *DeltaWorker) appendEntities(gs *GameState) {
	for _, npc := range dw.delta.NewNPCs {
		npc.Hydrate()
		gs.KnowledgeBase.NPCs = append(gs.KnowledgeBase.NPCs, npc)
	}
	for _, loc := range dw.delta.NewLocations {
		loc.Hydrate()
		gs.KnowledgeBase.Locations = append(gs.KnowledgeBase.Locations, loc)
	}
	for _, f := range dw.delta.NewFactions {
		f.Hydrate()
		gs.KnowledgeBase.Factions = append(gs.KnowledgeBase.Factions, f)
	}
	for _, m := range dw.delta.NewMonsters {
		m.Hydrate()
		gs.KnowledgeBase.Monsters = append(gs.KnowledgeBase.Monsters, m)
	}
}

// applyCombatDirective handles the combat status transition. Entering
// combat requires at least one resolvable non-player combatant, either
// from explicit IDs or by matching known entity names against the
// narrative text.
func (dw *DeltaWorker) applyCombatDirective(gs *GameState) {
	if dw.delta.Combat == nil {
		return
	}
	switch dw.delta.Combat.Status {
	case CombatStart:
		if gs.Character == nil {
			if dw.logger != nil {
				dw.logger.Warn("Combat start directive with no player character",
					"save_id", gs.ID.String())
			}
			return
		}
		opponents := dw.resolveCombatants(gs)
		if len(opponents) == 0 {
			if dw.logger != nil {
				dw.logger.Warn("Combat start directive with no resolvable combatants",
					"save_id", gs.ID.String())
			}
			return
		}
		gs.IsInCombat = true
		gs.CombatTurnNumber = 1
		gs.CombatLog = nil
		gs.Combatants = append([]string{gs.Character.ID}, opponents...)
	case CombatEnd:
		gs.IsInCombat = false
		gs.CombatTurnNumber = 0
		gs.Combatants = nil
		gs.CombatLog = nil
	}
}

func (dw *DeltaWorker) resolveCombatants(gs *GameState) []string {
	var opponents []string
	for _, id := range dw.delta.Combat.CombatantIDs {
		if id == gs.Character.ID {
			continue
		}
		if gs.FindCharacter(id) != nil {
			opponents = append(opponents, id)
		}
	}
	if len(opponents) > 0 {
		return opponents
	}

	// Fallback: match known entity names against the narrative.
	seen := make(map[string]bool)
	match := func(chars []Character) {
		for i := range chars {
			c := &chars[i]
			if c.ID == gs.Character.ID || seen[c.ID] {
				continue
			}
			if textfilter.ContainsFold(dw.delta.Story, c.Name) ||
				(c.DisplayName != "" && textfilter.ContainsFold(dw.delta.Story, c.DisplayName)) {
				seen[c.ID] = true
				opponents = append(opponents, c.ID)
			}
		}
	}
	match(gs.KnowledgeBase.Monsters)
	match(gs.KnowledgeBase.NPCs)
	return opponents
}

// applyIntimateScene advances the scene counter: explicit start
// initializes it, explicit stop clears it, and an already-active scene
// ticks forward one step per turn.
func (dw *DeltaWorker) applyIntimateScene(gs *GameState) {
	switch dw.delta.IntimateScene {
	case SceneStart:
		gs.IsIntimateScene = true
		if gs.IntimateSceneStep < 1 {
			gs.IntimateSceneStep = 1
		} else {
			gs.IntimateSceneStep++
		}
	case SceneStop:
		gs.IsIntimateScene = false
		gs.IntimateSceneStep = 0
	default:
		if gs.IsIntimateScene {
			gs.IntimateSceneStep++
		}
	}
}

// applyKeyMemories appends the turn summary to the key memories of
// every entity mentioned by tag in the summary text.
func (dw *DeltaWorker) applyKeyMemories(gs *GameState) {
	if dw.delta.Summary == nil || dw.delta.Summary.Text == "" {
		return
	}
	memory := textfilter.StripTags(dw.delta.Summary.Text)
	for _, tag := range textfilter.ExtractTags(dw.delta.Summary.Text) {
		c := gs.FindCharacterByName(tag.Name)
		if c == nil {
			continue
		}
		c.AddKeyMemory(memory)
	}
}

func (dw *DeltaWorker) applyCharacterDeltas(gs *GameState) error {
	for _, cd := range dw.delta.CharacterDeltas {
		target := gs.FindCharacter(cd.EntityID)
		if target == nil {
			target = gs.FindCharacterByName(cd.EntityID)
		}
		if target == nil {
			if dw.logger != nil {
				dw.logger.Warn("Character delta for unknown entity", "entity_id", cd.EntityID)
			}
			continue
		}
		if err := MergeCharacterFields(target, cd.Fields); err != nil {
			return fmt.Errorf("failed to merge fields for %q: %w", cd.EntityID, err)
		}
	}
	return nil
}
