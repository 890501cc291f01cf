// Package agent provides the decision makers that sit across the table
// from each other: deterministic baselines for calibrating the benchmark,
// a scripted agent for tests, and an LLM-backed agent speaking the
// OpenAI chat completions protocol.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/chipbench/chipbench/internal/deck"
	"github.com/chipbench/chipbench/internal/evaluator"
	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/randutil"
)

// CallAgent checks when it can and calls when it must. The classic
// calling station: it never folds and never raises.
type CallAgent struct{}

func (CallAgent) RequestAction(ctx context.Context, req game.ActionRequest) (game.Decision, error) {
	return callOrCheck(req), nil
}

// FoldAgent checks when free and folds to any bet. It measures how much
// an opponent wins through pure aggression.
type FoldAgent struct{}

func (FoldAgent) RequestAction(ctx context.Context, req game.ActionRequest) (game.Decision, error) {
	return checkOrFold(req), nil
}

// RandomAgent samples uniformly from the legal actions, with sizes drawn
// uniformly from the offered bounds. Seeded, so sessions with a random
// baseline stay reproducible.
type RandomAgent struct {
	rng *rand.Rand
}

// NewRandom builds a RandomAgent from a seed.
func NewRandom(seed int64) *RandomAgent {
	return &RandomAgent{rng: randutil.New(seed)}
}

func (a *RandomAgent) RequestAction(ctx context.Context, req game.ActionRequest) (game.Decision, error) {
	la := req.Legal[a.rng.IntN(len(req.Legal))]
	d := game.Decision{Action: la.Action}
	if la.Action == game.Bet || la.Action == game.Raise {
		d.Amount = la.Min + a.rng.IntN(la.Max-la.Min+1)
	}
	return d, nil
}

// ManiacAgent bets and raises the pot whenever the rules allow, calling
// only when raising is closed to it. Raise wars against it end at an
// all-in quickly.
type ManiacAgent struct{}

func (ManiacAgent) RequestAction(ctx context.Context, req game.ActionRequest) (game.Decision, error) {
	return raiseOrBet(req, req.View.Pot), nil
}

// TightAgent plays a premium-only game: preflop it raises the top of the
// starting-hand rankings, flat-calls the playable middle and dumps the
// rest; postflop it needs a made hand to continue.
type TightAgent struct{}

func (TightAgent) RequestAction(ctx context.Context, req game.ActionRequest) (game.Decision, error) {
	view := req.View
	if view.Street == game.Preflop {
		pct := deck.GetHandPercentile(view.HoleCards)
		switch {
		case pct >= 0.85:
			return raiseOrBet(req, 3*view.BigBlind), nil
		case pct >= 0.55:
			return callOrCheck(req), nil
		default:
			return checkOrFold(req), nil
		}
	}

	cards := make([]deck.Card, 0, 7)
	cards = append(cards, view.HoleCards...)
	cards = append(cards, view.Board...)
	rank, err := evaluator.Evaluate(cards)
	if err != nil {
		return checkOrFold(req), nil
	}
	switch {
	case rank.Category() >= evaluator.TwoPair:
		return raiseOrBet(req, view.Pot), nil
	case rank.Category() >= evaluator.Pair:
		return callOrCheck(req), nil
	default:
		return checkOrFold(req), nil
	}
}

// ScriptedAgent replays a fixed list of decisions in order and errors
// once the list is exhausted.
type ScriptedAgent struct {
	decisions []game.Decision
	next      int
}

// NewScripted builds a ScriptedAgent from the given decisions.
func NewScripted(decisions ...game.Decision) *ScriptedAgent {
	return &ScriptedAgent{decisions: decisions}
}

func (a *ScriptedAgent) RequestAction(ctx context.Context, req game.ActionRequest) (game.Decision, error) {
	if a.next >= len(a.decisions) {
		return game.Decision{}, errors.New("scripted agent has no decisions left")
	}
	d := a.decisions[a.next]
	a.next++
	return d, nil
}

// Remaining reports how many scripted decisions are still queued.
func (a *ScriptedAgent) Remaining() int {
	return len(a.decisions) - a.next
}

// BuiltinNames lists the agents NewBuiltin accepts.
func BuiltinNames() []string {
	return []string{"caller", "folder", "random", "maniac", "tight"}
}

// NewBuiltin constructs a baseline agent by name. The seed only matters
// for agents that randomise.
func NewBuiltin(name string, seed int64) (game.Agent, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "caller":
		return CallAgent{}, nil
	case "folder":
		return FoldAgent{}, nil
	case "random":
		return NewRandom(seed), nil
	case "maniac":
		return ManiacAgent{}, nil
	case "tight":
		return TightAgent{}, nil
	}
	return nil, fmt.Errorf("unknown builtin agent %q (have %s)", name, strings.Join(BuiltinNames(), ", "))
}

func callOrCheck(req game.ActionRequest) game.Decision {
	if req.ToCall > 0 {
		return game.Decision{Action: game.Call}
	}
	return game.Decision{Action: game.Check}
}

func checkOrFold(req game.ActionRequest) game.Decision {
	if req.ToCall > 0 {
		return game.Decision{Action: game.Fold}
	}
	return game.Decision{Action: game.Check}
}

// raiseOrBet aims for the target total, clamped to the offered bounds,
// degrading to a call or check when no aggressive action is on offer.
func raiseOrBet(req game.ActionRequest, target int) game.Decision {
	for _, la := range req.Legal {
		if la.Action == game.Raise || la.Action == game.Bet {
			return game.Decision{Action: la.Action, Amount: clamp(target, la.Min, la.Max)}
		}
	}
	return callOrCheck(req)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
