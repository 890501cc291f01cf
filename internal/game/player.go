package game

import (
	"github.com/chipbench/chipbench/internal/deck"
)

// Player is the per-seat mutable state for one hand.
type Player struct {
	Seat             int
	Name             string
	Stack            int // chips not yet wagered this hand
	CurrentBet       int // chips committed on the current street
	TotalContributed int // chips committed across the whole hand, never reset
	Folded           bool
	AllIn            bool
	HoleCards        []deck.Card
}

// ApplyContribution moves chips so the player's current-street bet reaches
// target. A target beyond the stack is capped at the stack and marks the
// player all-in; a capped contribution is never an error. Returns the chips
// actually moved. Targets at or below the current bet move nothing.
func (p *Player) ApplyContribution(target int) int {
	need := target - p.CurrentBet
	if need <= 0 {
		return 0
	}
	if need >= p.Stack {
		need = p.Stack
		p.AllIn = true
	}
	p.Stack -= need
	p.CurrentBet += need
	p.TotalContributed += need
	return need
}

// CanAct reports whether the player can be prompted for an action.
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn
}

// Live reports whether the player is still in the hand. All-in players are
// live; only folding removes a player from contention.
func (p *Player) Live() bool {
	return !p.Folded
}
