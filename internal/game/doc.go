// Package game implements the heads-up no-limit Texas hold'em engine: one
// Hand runs a complete hand between two seats, from blinds through betting
// and showdown to pot resolution.
//
// The main type is Hand. Decisions come from Agent implementations, every
// action is validated against LegalActions, and the finished hand is
// returned as a self-describing Result.
//
// # Basic Usage
//
// Create and play a hand between two agents:
//
//	cfg := game.Config{
//	    Names:      [2]string{"Alice", "Bob"},
//	    SmallBlind: 50,
//	    BigBlind:   100,
//	    Stacks:     [2]int{10000, 10000},
//	}
//	h, err := game.NewHand(randutil.New(42), cfg, [2]game.Agent{a, b})
//	if err != nil {
//	    return err
//	}
//	result, err := h.Play(ctx)
//
// # Determinism and Replay
//
// All shuffling goes through the injected *rand.Rand, so a seed pins the
// whole hand. A Result carries everything needed to re-run it: Replay
// rebuilds the hand from the recorded cards and actions and produces an
// identical Result.
//
//	again, err := game.Replay(ctx, result)
//
// # Architecture
//
// Hand delegates to specialized pieces:
//   - bettingRound: tracks raise rights and street closure
//   - LegalActions / ValidateDecision: the legality rules for one decision
//   - buildLayers: splits contributions into main and side pots
//   - evaluator.Evaluate: ranks showdown hands
//
// Chip conservation is checked after every state change; a violation means
// an engine bug and fails the hand rather than corrupting stacks.
package game
