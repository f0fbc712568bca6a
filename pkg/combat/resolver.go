// Package combat is the deterministic, offline combat resolver. While
// an encounter is active, player actions are resolved here without any
// generative call; the narrative layer only returns for the aftermath.
package combat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/saga-engine/pkg/state"
)

// ErrNoOpponent indicates the combatant list held no resolvable
// non-player entity. This is fatal for the action: combat state is
// left unchanged and the error is surfaced.
var ErrNoOpponent = errors.New("no resolvable opponent in combat")

// Source supplies random values. Injecting it keeps resolution
// reproducible under test.
type Source interface {
	Intn(n int) int
}

// Outcome tags a terminal combat state.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeFled Outcome = "fled"
)

// Action is the player's move for one combat turn.
type Action string

const (
	ActionAttack Action = "attack"
	ActionDefend Action = "defend"
	ActionFlee   Action = "flee"
)

// ParseAction maps free player text onto a combat action. Attack is
// the default when nothing else matches.
func ParseAction(text string) Action {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "flee"), strings.Contains(lower, "run away"),
		strings.Contains(lower, "chạy trốn"), strings.Contains(lower, "bỏ chạy"):
		return ActionFlee
	case strings.Contains(lower, "defend"), strings.Contains(lower, "block"),
		strings.Contains(lower, "phòng thủ"), strings.Contains(lower, "đỡ đòn"):
		return ActionDefend
	default:
		return ActionAttack
	}
}

// Result is the outcome of one resolved combat turn.
type Result struct {
	OpponentID  string
	DamageDealt int
	DamageTaken int
	Log         []string
	ShouldEnd   bool
	Outcome     Outcome
}

// Resolve computes one combat turn against the first non-player
// combatant. It mutates the given state in place: health totals,
// combat log and turn counter. The caller owns persistence.
func Resolve(gs *state.GameState, actionText string, src Source) (*Result, error) {
	player := gs.Character
	if player == nil {
		return nil, fmt.Errorf("combat requires a player character")
	}
	opponent := firstOpponent(gs)
	if opponent == nil {
		return nil, ErrNoOpponent
	}

	playerActor, err := toActor(player)
	if err != nil {
		return nil, fmt.Errorf("failed to build player actor: %w", err)
	}
	opponentActor, err := toActor(opponent)
	if err != nil {
		return nil, fmt.Errorf("failed to build opponent actor: %w", err)
	}

	res := &Result{OpponentID: opponent.ID}
	action := ParseAction(actionText)

	switch action {
	case ActionFlee:
		if resolveFlee(player, opponent, src) {
			res.ShouldEnd = true
			res.Outcome = OutcomeFled
			res.Log = append(res.Log, fmt.Sprintf("%s escapes from %s.", player.DisplayName, opponent.DisplayName))
		} else {
			res.Log = append(res.Log, fmt.Sprintf("%s fails to escape.", player.DisplayName))
			res.DamageTaken = counterAttack(opponent, playerActor, src, false, res)
		}
	case ActionDefend:
		res.Log = append(res.Log, fmt.Sprintf("%s takes a defensive stance.", player.DisplayName))
		res.DamageTaken = counterAttack(opponent, playerActor, src, true, res)
	default:
		res.DamageDealt = attack(player, opponentActor, opponent.DisplayName, src, res)
		if opponentActor.HP() > 0 {
			res.DamageTaken = counterAttack(opponent, playerActor, src, false, res)
		}
	}

	player.Health = playerActor.HP()
	opponent.Health = opponentActor.HP()

	if !res.ShouldEnd {
		switch {
		case opponent.Health <= 0:
			res.ShouldEnd = true
			res.Outcome = OutcomeWin
			res.Log = append(res.Log, fmt.Sprintf("%s is defeated.", opponent.DisplayName))
		case player.Health <= 0:
			res.ShouldEnd = true
			res.Outcome = OutcomeLoss
			res.Log = append(res.Log, fmt.Sprintf("%s falls in battle.", player.DisplayName))
		}
	}

	gs.CombatLog = append(gs.CombatLog, res.Log...)
	gs.CombatTurnNumber++

	return res, nil
}

// firstOpponent returns the first combatant that is not the player and
// resolves to a known character.
func firstOpponent(gs *state.GameState) *state.Character {
	for _, id := range gs.Combatants {
		if gs.Character != nil && id == gs.Character.ID {
			continue
		}
		if c := gs.FindCharacter(id); c != nil {
			return c
		}
	}
	return nil
}

// toActor projects a character onto a d20 actor for HP and attribute
// bookkeeping during resolution.
func toActor(c *state.Character) (*d20.Actor, error) {
	return d20.NewActor(c.ID).
		WithHP(c.Health).
		WithAC(10 + mod(c.Stats.Agility)).
		WithAttributes(map[string]int{
			"strength": c.Stats.Strength,
			"agility":  c.Stats.Agility,
		}).
		Build()
}

// mod is the standard ability modifier: (score-10)/2.
func mod(score int) int {
	return (score - 10) / 2
}

func attack(attacker *state.Character, target *d20.Actor, targetName string, src Source, res *Result) int {
	roll := src.Intn(20) + 1
	total := roll + mod(attacker.Stats.Strength)
	if total < target.AC() {
		res.Log = append(res.Log, fmt.Sprintf("%s attacks %s and misses (%d vs AC %d).",
			attacker.DisplayName, targetName, total, target.AC()))
		return 0
	}

	dmg := src.Intn(6) + 1 + maxInt(mod(attacker.Stats.Strength), 0)
	hp := target.HP() - dmg
	if hp < 0 {
		hp = 0
	}
	_ = target.SetHP(hp)
	res.Log = append(res.Log, fmt.Sprintf("%s hits %s for %d damage.",
		attacker.DisplayName, targetName, dmg))
	return dmg
}

func counterAttack(opponent *state.Character, playerActor *d20.Actor, src Source, defending bool, res *Result) int {
	roll := src.Intn(20) + 1
	total := roll + mod(opponent.Stats.Strength)
	ac := playerActor.AC()
	if defending {
		ac += 2
	}
	if total < ac {
		res.Log = append(res.Log, fmt.Sprintf("%s attacks and misses (%d vs AC %d).",
			opponent.DisplayName, total, ac))
		return 0
	}

	dmg := src.Intn(6) + 1 + maxInt(mod(opponent.Stats.Strength), 0)
	if defending {
		dmg = (dmg + 1) / 2
	}
	hp := playerActor.HP() - dmg
	if hp < 0 {
		hp = 0
	}
	_ = playerActor.SetHP(hp)
	res.Log = append(res.Log, fmt.Sprintf("%s strikes back for %d damage.",
		opponent.DisplayName, dmg))
	return dmg
}

// resolveFlee is an opposed agility check: d20 + player agility mod
// against 10 + opponent agility mod.
func resolveFlee(player, opponent *state.Character, src Source) bool {
	roll := src.Intn(20) + 1
	return roll+mod(player.Stats.Agility) >= 10+mod(opponent.Stats.Agility)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
