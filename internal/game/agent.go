package game

import (
	"context"

	"github.com/chipbench/chipbench/internal/deck"
)

// Decision is an agent's answer to an action request. Amount is the total
// current-street bet the player wants to reach; it is only meaningful for
// Bet and Raise. Reasoning is free text carried into the action record.
type Decision struct {
	Action    Action `json:"action"`
	Amount    int    `json:"amount,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// HandView is the read-only snapshot an agent sees when asked to act. Only
// the acting player's hole cards are included.
type HandView struct {
	HandID     string      `json:"hand_id"`
	Seat       int         `json:"seat"`
	Names      [2]string   `json:"names"`
	Street     Street      `json:"street"`
	HoleCards  []deck.Card `json:"hole_cards"`
	Board      []deck.Card `json:"board"`
	Pot        int         `json:"pot"`
	Stacks     [2]int      `json:"stacks"`
	Bets       [2]int      `json:"bets"`
	SmallBlind int         `json:"small_blind"`
	BigBlind   int         `json:"big_blind"`
	Button     int         `json:"button"`

	// History holds every action so far this hand, oldest first.
	History []ActionRecord `json:"history"`
}

// ActionRequest is one prompt to a decision agent. PriorError carries the
// validation or transport failure from the previous attempt so the agent
// can correct itself.
type ActionRequest struct {
	View       HandView      `json:"view"`
	Legal      []LegalAction `json:"legal_actions"`
	ToCall     int           `json:"to_call"`
	PriorError string        `json:"prior_error,omitempty"`
}

// Agent supplies betting decisions for one seat. Implementations may be
// scripted, rule-based or remote; the engine only sees this interface.
// RequestAction may block on network calls; any timeout handling belongs to
// the implementation, and a returned error simply feeds the engine's retry
// and fallback policy.
type Agent interface {
	RequestAction(ctx context.Context, req ActionRequest) (Decision, error)
}
