package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chipbench/chipbench/internal/deck"
)

// HistoryWriter persists rendered hand histories.
type HistoryWriter interface {
	WriteHistory(handID string, content string) error
}

// FileHistoryWriter writes one text file per hand.
type FileHistoryWriter struct {
	directory string
}

// NewFileHistoryWriter creates a writer rooted at the given directory.
func NewFileHistoryWriter(directory string) *FileHistoryWriter {
	return &FileHistoryWriter{directory: directory}
}

// WriteHistory writes the hand's history to hand_<id>.txt, creating the
// directory as needed.
func (w *FileHistoryWriter) WriteHistory(handID string, content string) error {
	if err := os.MkdirAll(w.directory, 0755); err != nil {
		return fmt.Errorf("failed to create hand history directory: %w", err)
	}
	filename := filepath.Join(w.directory, fmt.Sprintf("hand_%s.txt", handID))
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write hand history file: %w", err)
	}
	return nil
}

// NoopHistoryWriter discards histories.
type NoopHistoryWriter struct{}

// WriteHistory does nothing.
func (NoopHistoryWriter) WriteHistory(handID string, content string) error {
	return nil
}

// HistoryText renders the hand as human-readable history text.
func (r *Result) HistoryText() string {
	return RenderResult(r)
}

// RenderResult formats a completed hand as human-readable history text.
// Everything comes from the result itself, so stored results render
// identically to live ones.
func RenderResult(r *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== HAND %s ===\n", r.HandID)
	fmt.Fprintf(&b, "Blinds: %d/%d\n", r.Config.SmallBlind, r.Config.BigBlind)
	for seat := 0; seat < 2; seat++ {
		tag := " [BB]"
		if seat == r.Config.Button {
			tag = " [D]"
		}
		fmt.Fprintf(&b, "Seat %d: %s (%d in chips)%s\n", seat+1, r.Config.Names[seat], r.Config.Stacks[seat], tag)
	}

	sbSeat := r.Config.Button
	bbSeat := 1 - r.Config.Button
	fmt.Fprintf(&b, "%s: posts small blind $%d\n", r.Config.Names[sbSeat], min(r.Config.SmallBlind, r.Config.Stacks[sbSeat]))
	fmt.Fprintf(&b, "%s: posts big blind $%d\n", r.Config.Names[bbSeat], min(r.Config.BigBlind, r.Config.Stacks[bbSeat]))

	renderStreets(&b, r)

	won := creditedBySeat(r)
	if r.Showdown {
		b.WriteString("\n*** SHOWDOWN ***\n")
		for seat := 0; seat < 2; seat++ {
			fmt.Fprintf(&b, "%s: shows [%s]\n", r.Config.Names[seat], cardList(r.HoleCards[seat]))
		}
	}

	b.WriteString("\n*** SUMMARY ***\n")
	fmt.Fprintf(&b, "Total pot $%d\n", r.FinalPot)
	if len(r.Board) > 0 {
		fmt.Fprintf(&b, "Board [%s]\n", cardList(r.Board))
	}
	for seat := 0; seat < 2; seat++ {
		pos := "big blind"
		if seat == r.Config.Button {
			pos = "small blind"
		}
		line := fmt.Sprintf("Seat %d: %s (%s)", seat+1, r.Config.Names[seat], pos)
		switch {
		case won[seat] > 0:
			line += fmt.Sprintf(" showed [%s] and won ($%d)", cardList(r.HoleCards[seat]), won[seat])
			if rank := winningRankFor(r, seat); rank != "" {
				line += fmt.Sprintf(" with %s", rank)
			}
		case folded(r, seat):
			line += " folded"
			if r.Net[seat] < 0 {
				line += fmt.Sprintf(" and lost $%d", -r.Net[seat])
			}
		default:
			line += fmt.Sprintf(" mucked [%s]", cardList(r.HoleCards[seat]))
			if r.Net[seat] < 0 {
				line += fmt.Sprintf(" and lost $%d", -r.Net[seat])
			}
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("=== END HAND ===\n")
	return b.String()
}

// renderStreets writes the street headers, board reveals and action lines.
// Headers follow the board rather than the actions so that all-in runouts
// still show every card dealt.
func renderStreets(b *strings.Builder, r *Result) {
	// Street bets persist across actions, so call deltas are derived from
	// the previous total per seat.
	streetBets := [2]int{}

	for _, street := range []Street{Preflop, Flop, Turn, River} {
		switch street {
		case Preflop:
			b.WriteString("*** PRE-FLOP ***\n")
			streetBets[r.Config.Button] = min(r.Config.SmallBlind, r.Config.Stacks[r.Config.Button])
			streetBets[1-r.Config.Button] = min(r.Config.BigBlind, r.Config.Stacks[1-r.Config.Button])
		case Flop:
			if len(r.Board) < 3 {
				return
			}
			fmt.Fprintf(b, "\n*** FLOP ***\nBoard: [%s]\n", cardList(r.Board[:3]))
			streetBets = [2]int{}
		case Turn:
			if len(r.Board) < 4 {
				return
			}
			fmt.Fprintf(b, "\n*** TURN ***\nBoard: [%s]\n", cardList(r.Board[:4]))
			streetBets = [2]int{}
		case River:
			if len(r.Board) < 5 {
				return
			}
			fmt.Fprintf(b, "\n*** RIVER ***\nBoard: [%s]\n", cardList(r.Board[:5]))
			streetBets = [2]int{}
		}
		for _, rec := range r.Actions {
			if rec.Street != street {
				continue
			}
			b.WriteString(actionLine(r.Config.Names[rec.Seat], rec, streetBets[rec.Seat]) + "\n")
			if rec.Amount > 0 {
				streetBets[rec.Seat] = rec.Amount
			}
		}
	}
}

func actionLine(name string, rec ActionRecord, prevBet int) string {
	switch rec.Action {
	case Fold:
		if rec.IsFallback {
			return fmt.Sprintf("%s: fails to act and folds", name)
		}
		return fmt.Sprintf("%s: folds", name)
	case Check:
		if rec.IsFallback {
			return fmt.Sprintf("%s: fails to act and checks", name)
		}
		return fmt.Sprintf("%s: checks", name)
	case Call:
		if rec.AllIn {
			return fmt.Sprintf("%s: goes all-in for $%d (pot now: $%d)", name, rec.Amount, rec.Pot)
		}
		return fmt.Sprintf("%s: calls $%d (pot now: $%d)", name, rec.Amount-prevBet, rec.Pot)
	case Bet:
		if rec.AllIn {
			return fmt.Sprintf("%s: goes all-in for $%d (pot now: $%d)", name, rec.Amount, rec.Pot)
		}
		return fmt.Sprintf("%s: bets $%d (pot now: $%d)", name, rec.Amount, rec.Pot)
	case Raise:
		if rec.AllIn {
			return fmt.Sprintf("%s: goes all-in for $%d (pot now: $%d)", name, rec.Amount, rec.Pot)
		}
		return fmt.Sprintf("%s: raises to $%d (pot now: $%d)", name, rec.Amount, rec.Pot)
	}
	return fmt.Sprintf("%s: %s", name, rec.Action)
}

// creditedBySeat reapplies the award split to recover each seat's winnings.
func creditedBySeat(r *Result) [2]int {
	var won [2]int
	for _, award := range r.Awards {
		splitLayer(award.Amount, award.Winners, func(seat, chips int) {
			won[seat] += chips
		})
	}
	return won
}

func winningRankFor(r *Result, seat int) string {
	for _, award := range r.Awards {
		if award.WinningRank == "" {
			continue
		}
		for _, w := range award.Winners {
			if w == seat {
				return award.WinningRank
			}
		}
	}
	return ""
}

func folded(r *Result, seat int) bool {
	for _, rec := range r.Actions {
		if rec.Seat == seat && rec.Action == Fold {
			return true
		}
	}
	return false
}

func cardList(cards []deck.Card) string {
	return strings.Join(deck.Codes(cards), " ")
}
