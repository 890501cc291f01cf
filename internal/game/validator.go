package game

import (
	"fmt"
	"strings"
)

// LegalAction is one entry in the legal action set offered to an agent. For
// Bet and Raise, Min and Max bound the total current-street bet the player
// may name; when they are equal the only legal sizing is an all-in for less
// than the normal minimum.
type LegalAction struct {
	Action Action `json:"action"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
}

// legalActions computes the legal action set for a player who is due to
// act. high is the street's highest current bet among live players,
// minRaise the prevailing minimum raise increment, and mayRaise whether an
// incomplete all-in raise has stripped the player's right to raise.
//
// Amounts for bet and raise are total targets for the street, never deltas:
// the chips actually needed are amount minus the player's current bet.
func legalActions(p *Player, high, minRaise int, mayRaise bool) []LegalAction {
	out := []LegalAction{{Action: Fold}}

	toCall := high - p.CurrentBet
	if toCall > 0 {
		// A short stack calls for less and is simply all-in.
		out = append(out, LegalAction{Action: Call})
	} else {
		out = append(out, LegalAction{Action: Check})
	}

	allIn := p.CurrentBet + p.Stack
	switch {
	case high == 0:
		if p.Stack > 0 {
			out = append(out, LegalAction{Action: Bet, Min: 1, Max: allIn})
		}
	case mayRaise && allIn > high:
		floor := high + minRaise
		if allIn < floor {
			out = append(out, LegalAction{Action: Raise, Min: allIn, Max: allIn})
		} else {
			out = append(out, LegalAction{Action: Raise, Min: floor, Max: allIn})
		}
	}
	return out
}

// validateDecision checks a proposed decision against the legal action set.
// Errors are surfaced to the caller, never silently corrected. Amounts on
// fold, check and call are ignored; the call amount is always implicit.
func validateDecision(p *Player, legal []LegalAction, d Decision) *InvalidActionError {
	var la *LegalAction
	for i := range legal {
		if legal[i].Action == d.Action {
			la = &legal[i]
			break
		}
	}
	if la == nil {
		return &InvalidActionError{
			Seat:   p.Seat,
			Action: d.Action,
			Amount: d.Amount,
			Reason: fmt.Sprintf("not available, legal actions: %s", legalActionNames(legal)),
		}
	}

	if d.Action != Bet && d.Action != Raise {
		return nil
	}

	if d.Amount <= 0 {
		return &InvalidActionError{
			Seat:   p.Seat,
			Action: d.Action,
			Amount: d.Amount,
			Reason: "amount must be positive",
		}
	}
	if need := d.Amount - p.CurrentBet; need > p.Stack {
		return &InvalidActionError{
			Seat:   p.Seat,
			Action: d.Action,
			Amount: d.Amount,
			Reason: fmt.Sprintf("needs %d chips but only %d remain", need, p.Stack),
		}
	}
	if d.Amount < la.Min {
		reason := fmt.Sprintf("minimum is %d", la.Min)
		if d.Action == Raise && la.Min < la.Max {
			reason = fmt.Sprintf("must raise to at least %d or move all-in for %d", la.Min, la.Max)
		}
		return &InvalidActionError{
			Seat:   p.Seat,
			Action: d.Action,
			Amount: d.Amount,
			Reason: reason,
		}
	}
	if d.Amount > la.Max {
		return &InvalidActionError{
			Seat:   p.Seat,
			Action: d.Action,
			Amount: d.Amount,
			Reason: fmt.Sprintf("maximum is %d (all-in)", la.Max),
		}
	}
	return nil
}

// fallbackDecision picks the safe default after an agent exhausts its
// retries: check when nothing is owed, otherwise fold. Both are legal by
// construction whenever the player is due to act.
func fallbackDecision(legal []LegalAction) Decision {
	for _, la := range legal {
		if la.Action == Check {
			return Decision{Action: Check, Reasoning: "fallback after failed attempts"}
		}
	}
	return Decision{Action: Fold, Reasoning: "fallback after failed attempts"}
}

func legalActionNames(legal []LegalAction) string {
	names := make([]string, len(legal))
	for i, la := range legal {
		names[i] = la.Action.String()
	}
	return strings.Join(names, ", ")
}
