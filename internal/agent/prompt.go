package agent

import (
	"fmt"
	"strings"

	"github.com/chipbench/chipbench/internal/deck"
	"github.com/chipbench/chipbench/internal/game"
)

const systemPrompt = `You are an expert heads-up no-limit Texas hold'em player. Analyze the situation and choose the best action.

Guidelines:
- Only use actions from the legal actions list.
- Bet and raise amounts are the total chips committed for the street, not the increment.
- Consider hand strength, position, pot odds and stack depth.

Respond with a JSON object: {"reasoning": <brief explanation>, "action": <one legal action>, "amount": <integer, only for bet or raise>}.`

// renderPrompt formats an action request as the textual observation an LLM
// sees: the table setup, its own cards, the action so far grouped by
// street, and the decision data. The opponent's hole cards are never part
// of the view, so the observation is redacted by construction.
func renderPrompt(req game.ActionRequest) string {
	view := req.View
	var b strings.Builder

	fmt.Fprintf(&b, "Players: 2\n")
	fmt.Fprintf(&b, "Blinds: %d/%d\n", view.SmallBlind, view.BigBlind)
	fmt.Fprintf(&b, "Your position: %s\n", positionName(view.Seat, view.Button))
	fmt.Fprintf(&b, "Your hand: [%s]\n", strings.Join(deck.Codes(view.HoleCards), " "))
	b.WriteString("\n")

	renderHistory(&b, view)

	fmt.Fprintf(&b, "Total pot: %d\n", view.Pot)
	if req.ToCall > 0 {
		fmt.Fprintf(&b, "Amount to call: %d\n", req.ToCall)
	}
	if bet := view.Bets[view.Seat]; bet > 0 {
		fmt.Fprintf(&b, "Your current bet: %d\n", bet)
	}
	fmt.Fprintf(&b, "Your stack: %d\n", view.Stacks[view.Seat])
	fmt.Fprintf(&b, "Opponent stack: %d\n", view.Stacks[1-view.Seat])
	fmt.Fprintf(&b, "Legal actions: %s\n", legalSummary(req))

	if req.PriorError != "" {
		fmt.Fprintf(&b, "\nERROR: Your last action was invalid: %s\n", req.PriorError)
		b.WriteString("Please choose a valid action this time.\n")
	}

	b.WriteString("\nWhat is your action?")
	return b.String()
}

// renderHistory writes the action log grouped by street, with board
// reveals on the street line and the viewer's own actions labelled You.
func renderHistory(b *strings.Builder, view game.HandView) {
	streets := []struct {
		street game.Street
		label  string
		cards  int
	}{
		{game.Preflop, "Preflop", 0},
		{game.Flop, "Flop", 3},
		{game.Turn, "Turn", 4},
		{game.River, "River", 5},
	}
	for _, st := range streets {
		if st.street > view.Street {
			break
		}
		if st.cards > 0 && len(view.Board) < st.cards {
			break
		}
		if st.cards > 0 {
			fmt.Fprintf(b, "%s: [%s]\n", st.label, strings.Join(deck.Codes(view.Board[:st.cards]), " "))
		} else {
			fmt.Fprintf(b, "%s:\n", st.label)
		}
		for _, rec := range view.History {
			if rec.Street != st.street {
				continue
			}
			fmt.Fprintf(b, "  %s %s\n", actorLabel(view, rec.Seat), describeAction(rec))
		}
	}
	b.WriteString("\n")
}

func actorLabel(view game.HandView, seat int) string {
	if seat == view.Seat {
		return fmt.Sprintf("You (%s)", positionName(seat, view.Button))
	}
	return fmt.Sprintf("%s (%s)", view.Names[seat], positionName(seat, view.Button))
}

func positionName(seat, button int) string {
	if seat == button {
		return "small blind"
	}
	return "big blind"
}

func describeAction(rec game.ActionRecord) string {
	var s string
	switch rec.Action {
	case game.Fold:
		s = "folds"
	case game.Check:
		s = "checks"
	case game.Call:
		s = fmt.Sprintf("calls to %d", rec.Amount)
	case game.Bet:
		s = fmt.Sprintf("bets %d", rec.Amount)
	case game.Raise:
		s = fmt.Sprintf("raises to %d", rec.Amount)
	default:
		s = rec.Action.String()
	}
	if rec.AllIn {
		s += " (all-in)"
	}
	return s
}

// legalSummary renders the legal action set with its bounds, e.g.
// "fold, call (200 more), raise (total between 500 and 10000)".
func legalSummary(req game.ActionRequest) string {
	parts := make([]string, 0, len(req.Legal))
	for _, la := range req.Legal {
		switch la.Action {
		case game.Call:
			parts = append(parts, fmt.Sprintf("call (%d more)", req.ToCall))
		case game.Bet, game.Raise:
			if la.Min == la.Max {
				parts = append(parts, fmt.Sprintf("%s (all-in for %d only)", la.Action, la.Max))
			} else {
				parts = append(parts, fmt.Sprintf("%s (total between %d and %d)", la.Action, la.Min, la.Max))
			}
		default:
			parts = append(parts, la.Action.String())
		}
	}
	return strings.Join(parts, ", ")
}
