package phh

import (
	"fmt"
	"strings"
	"time"

	"github.com/chipbench/chipbench/internal/deck"
	"github.com/chipbench/chipbench/internal/game"
)

// variantNT is PHH shorthand for no-limit Texas hold'em.
const variantNT = "NT"

// FromResult converts a finished hand into its PHH record. Positions
// follow the blind order, so the button maps to p1. Winnings mirror the
// engine's pot split, including the odd chip.
func FromResult(r *game.Result, table string, at time.Time) *HandHistory {
	btn := r.Config.Button
	order := [2]int{btn, 1 - btn}
	pos := [2]int{}
	pos[order[0]] = 0
	pos[order[1]] = 1

	h := &HandHistory{
		Variant:           variantNT,
		Table:             table,
		SeatCount:         2,
		Seats:             []int{order[0] + 1, order[1] + 1},
		Antes:             []int{0, 0},
		BlindsOrStraddles: []int{r.Config.SmallBlind, r.Config.BigBlind},
		MinBet:            r.Config.BigBlind,
		StartingStacks:    []int{r.Config.Stacks[order[0]], r.Config.Stacks[order[1]]},
		FinishingStacks:   []int{r.FinalStacks[order[0]], r.FinalStacks[order[1]]},
		Players:           []string{r.Config.Names[order[0]], r.Config.Names[order[1]]},
		HandID:            r.HandID,
		Timestamp:         at,
	}

	var winnings [2]int
	for _, aw := range r.Awards {
		share := aw.Amount / len(aw.Winners)
		rem := aw.Amount % len(aw.Winners)
		for i, seat := range aw.Winners {
			chips := share
			if i == 0 {
				chips += rem
			}
			winnings[seat] += chips
		}
	}
	h.Winnings = []int{winnings[order[0]], winnings[order[1]]}

	h.Actions = make([]string, 0, len(r.Actions)+8)
	for p, seat := range order {
		h.Actions = append(h.Actions, fmt.Sprintf("d dh p%d %s", p+1, cardCodes(r.HoleCards[seat])))
	}

	street := game.Preflop
	for _, rec := range r.Actions {
		for street < rec.Street {
			street++
			if deal := boardDeal(street, r.Board); deal != "" {
				h.Actions = append(h.Actions, deal)
			}
		}
		h.Actions = append(h.Actions, formatAction(pos[rec.Seat], rec))
	}
	// An all-in runout deals the rest of the board with no further
	// action records.
	for street < game.River {
		street++
		deal := boardDeal(street, r.Board)
		if deal == "" {
			break
		}
		h.Actions = append(h.Actions, deal)
	}

	if r.Showdown {
		for p, seat := range order {
			h.Actions = append(h.Actions, fmt.Sprintf("p%d sm %s", p+1, cardCodes(r.HoleCards[seat])))
		}
	}
	return h
}

// formatAction maps one engine action onto the PHH vocabulary: f for
// folds, cc for checks and calls, cbr with the street total for bets and
// raises.
func formatAction(position int, rec game.ActionRecord) string {
	player := fmt.Sprintf("p%d", position+1)
	switch rec.Action {
	case game.Fold:
		return player + " f"
	case game.Check, game.Call:
		return player + " cc"
	default:
		return fmt.Sprintf("%s cbr %d", player, rec.Amount)
	}
}

func boardDeal(street game.Street, board []deck.Card) string {
	var seg []deck.Card
	switch street {
	case game.Flop:
		if len(board) >= 3 {
			seg = board[0:3]
		}
	case game.Turn:
		if len(board) >= 4 {
			seg = board[3:4]
		}
	case game.River:
		if len(board) >= 5 {
			seg = board[4:5]
		}
	}
	if len(seg) == 0 {
		return ""
	}
	return "d db " + cardCodes(seg)
}

func cardCodes(cards []deck.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.Code())
	}
	return b.String()
}
