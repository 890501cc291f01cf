package store

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/chipbench/chipbench/internal/agent"
	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/randutil"
	"github.com/chipbench/chipbench/internal/session"
)

func playedHand(t *testing.T) *game.Result {
	t.Helper()
	cfg := game.Config{
		Names:      [2]string{"alpha", "beta"},
		SmallBlind: 50,
		BigBlind:   100,
		Stacks:     [2]int{10000, 10000},
		Button:     0,
	}
	h, err := game.NewHand(randutil.New(9), cfg, [2]game.Agent{agent.CallAgent{}, agent.CallAgent{}})
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	res, err := h.Play(context.Background())
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	return res
}

func TestEncodeDecodeHandRoundTrip(t *testing.T) {
	t.Parallel()

	res := playedHand(t)
	row, err := encodeHand(session.HandEvent{SessionID: "s-1", Index: 3, Result: res})
	if err != nil {
		t.Fatalf("encodeHand: %v", err)
	}
	if row.ID != res.HandID {
		t.Errorf("row.ID = %q, want %q", row.ID, res.HandID)
	}
	if row.SessionID != "s-1" || row.HandNo != 3 {
		t.Errorf("row session/no = %q/%d, want s-1/3", row.SessionID, row.HandNo)
	}
	if row.Pot != res.FinalPot || row.Winner != res.Winner || row.Showdown != res.Showdown {
		t.Errorf("row scalars = %d/%d/%v, want %d/%d/%v",
			row.Pot, row.Winner, row.Showdown, res.FinalPot, res.Winner, res.Showdown)
	}
	if !strings.Contains(row.HoleCards, `"`) {
		t.Errorf("hole cards not encoded as JSON strings: %s", row.HoleCards)
	}

	back, err := decodeHand(row.ID, []byte(row.Config), []byte(row.HoleCards), []byte(row.Board),
		[]byte(row.Actions), []byte(row.Awards), []byte(row.FinalStacks),
		row.Winner, row.Pot, row.Showdown)
	if err != nil {
		t.Fatalf("decodeHand: %v", err)
	}
	if !reflect.DeepEqual(back, res) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", back, res)
	}
}

func TestEncodeHandCountsFallbacks(t *testing.T) {
	t.Parallel()

	res := playedHand(t)
	res.Actions = append(res.Actions,
		game.ActionRecord{Seat: 0, Street: game.Flop, Action: game.Check, IsFallback: true},
		game.ActionRecord{Seat: 1, Street: game.Turn, Action: game.Check, IsFallback: true},
	)
	row, err := encodeHand(session.HandEvent{SessionID: "s", Result: res})
	if err != nil {
		t.Fatalf("encodeHand: %v", err)
	}
	if row.Fallbacks != 2 {
		t.Errorf("Fallbacks = %d, want 2", row.Fallbacks)
	}
}

func TestDecodeHandRejectsGarbage(t *testing.T) {
	t.Parallel()

	res := playedHand(t)
	row, err := encodeHand(session.HandEvent{SessionID: "s", Result: res})
	if err != nil {
		t.Fatalf("encodeHand: %v", err)
	}
	_, err = decodeHand(row.ID, []byte(`{broken`), []byte(row.HoleCards), []byte(row.Board),
		[]byte(row.Actions), []byte(row.Awards), []byte(row.FinalStacks),
		row.Winner, row.Pot, row.Showdown)
	if err == nil {
		t.Fatal("decodeHand accepted malformed config JSON")
	}
	if !strings.Contains(err.Error(), row.ID) {
		t.Errorf("error %q does not name the hand", err)
	}
}

func TestLeaderboardRowRates(t *testing.T) {
	t.Parallel()

	r := LeaderboardRow{Hands: 200, NetChips: 5000, Fallbacks: 3, Decisions: 600}
	if got := r.ChipsPerHand(); got != 25 {
		t.Errorf("ChipsPerHand = %v, want 25", got)
	}
	if got := r.FallbackRate(); got != 0.005 {
		t.Errorf("FallbackRate = %v, want 0.005", got)
	}

	var zero LeaderboardRow
	if zero.ChipsPerHand() != 0 || zero.FallbackRate() != 0 {
		t.Errorf("zero row rates = %v/%v, want 0/0", zero.ChipsPerHand(), zero.FallbackRate())
	}
}
