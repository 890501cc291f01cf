package game

import (
	"errors"
	"fmt"
)

// ErrChipConservation is returned when the sum of stacks, street bets and
// collected pot no longer equals the chips the hand started with. It
// signals an engine defect, not a recoverable game event.
var ErrChipConservation = errors.New("chip conservation violated")

// ErrScriptExhausted is returned when a replayed hand requests more actions
// than its action log contains.
var ErrScriptExhausted = errors.New("action script exhausted")

// InvalidActionError reports a proposed action that failed validation. It
// is recoverable: the driver re-prompts the agent with the error text, and
// falls back to a safe action if the agent keeps failing.
type InvalidActionError struct {
	Seat   int
	Action Action
	Amount int
	Reason string
}

func (e *InvalidActionError) Error() string {
	if e.Amount > 0 {
		return fmt.Sprintf("invalid action %s %d: %s", e.Action, e.Amount, e.Reason)
	}
	return fmt.Sprintf("invalid action %s: %s", e.Action, e.Reason)
}

// AgentError wraps a decision agent failure (no response, unparsable
// output). It follows the same re-prompt and fallback path as an invalid
// action.
type AgentError struct {
	Seat int
	Err  error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent for seat %d failed: %v", e.Seat, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}
