package game

import (
	"encoding/json"
	"fmt"
)

// Street identifies a phase of the hand, from blind posting through
// completion. Betting happens on Preflop through River; Blinds, Showdown and
// Complete are the non-betting phases of the state machine.
type Street int

const (
	Blinds Street = iota
	Preflop
	Flop
	Turn
	River
	Showdown
	Complete
)

func (s Street) String() string {
	return [...]string{"blinds", "preflop", "flop", "turn", "river", "showdown", "complete"}[s]
}

// MarshalJSON encodes the street as its lowercase name.
func (s Street) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a street from its lowercase name.
func (s *Street) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for st := Blinds; st <= Complete; st++ {
		if st.String() == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown street %q", name)
}

// Action represents a betting decision. These are the five verbs an agent
// may submit; going all-in is a property of the resulting contribution, not
// a separate verb.
type Action int

const (
	Fold Action = iota
	Check
	Call
	Bet
	Raise
)

func (a Action) String() string {
	return [...]string{"fold", "check", "call", "bet", "raise"}[a]
}

// ParseAction maps an action keyword to its Action.
func ParseAction(name string) (Action, error) {
	for a := Fold; a <= Raise; a++ {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// MarshalJSON encodes the action as its keyword.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an action from its keyword.
func (a *Action) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseAction(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// bettingRound tracks the per-street betting state: the prevailing minimum
// raise increment, who has acted since the last aggressive action, and who
// still holds the right to raise. The current high bet is not stored here;
// it is always derived from the players' live current bets.
type bettingRound struct {
	minRaise int
	acted    [2]bool
	mayRaise [2]bool
}

func newBettingRound(bigBlind int) bettingRound {
	return bettingRound{
		minRaise: bigBlind,
		mayRaise: [2]bool{true, true},
	}
}

// applyAggression updates raise bookkeeping after a bet or raise to newBet.
// A full raise (increment at least the prevailing minimum) resets the
// minimum and restores the opponent's right to raise. An all-in raise for
// less is an incomplete raise: the opponent must still respond to the new
// amount, but if they had already acted against the prior bet they may only
// call or fold.
func (br *bettingRound) applyAggression(actor int, actorAllIn bool, prevHigh, newBet int) {
	opp := 1 - actor
	inc := newBet - prevHigh
	switch {
	case inc >= br.minRaise:
		br.minRaise = inc
		br.mayRaise[opp] = true
	case actorAllIn && br.acted[opp]:
		br.mayRaise[opp] = false
	}
	br.acted[opp] = false
}

// closed reports whether betting for the street is finished: every player
// who can still act has acted since the last aggressive action and matches
// the high bet. A lone actor facing no outstanding amount has nothing to
// respond to, so the street closes without prompting them.
func (br *bettingRound) closed(players [2]*Player, high int) bool {
	var actors []int
	for seat, p := range players {
		if p.CanAct() {
			actors = append(actors, seat)
		}
	}
	switch len(actors) {
	case 0:
		return true
	case 1:
		return players[actors[0]].CurrentBet == high
	default:
		for _, seat := range actors {
			if !br.acted[seat] || players[seat].CurrentBet != high {
				return false
			}
		}
		return true
	}
}
