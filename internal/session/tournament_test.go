package session

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/chipbench/chipbench/internal/agent"
	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/rating"
)

func testEntrants() []Entrant {
	return []Entrant{
		{Name: "caller", NewAgent: func(int64) game.Agent { return agent.CallAgent{} }},
		{Name: "folder", NewAgent: func(int64) game.Agent { return agent.FoldAgent{} }},
		{Name: "random", NewAgent: func(seed int64) game.Agent { return agent.NewRandom(seed) }},
	}
}

func testTournamentConfig() TournamentConfig {
	return TournamentConfig{
		SmallBlind:    50,
		BigBlind:      100,
		Stack:         10000,
		HandsPerMatch: 4,
		Seed:          11,
		Duplicate:     true,
		Concurrency:   2,
	}
}

func TestTournamentRoundRobin(t *testing.T) {
	t.Parallel()

	tr, err := NewTournament(testTournamentConfig(), testEntrants())
	if err != nil {
		t.Fatalf("NewTournament: %v", err)
	}
	res, err := tr.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Matches) != 3 {
		t.Fatalf("3 entrants must produce 3 pairings, got %d", len(res.Matches))
	}
	wantPairs := [][2]string{{"caller", "folder"}, {"caller", "random"}, {"folder", "random"}}
	for i, m := range res.Matches {
		if m.A != wantPairs[i][0] || m.B != wantPairs[i][1] {
			t.Errorf("match %d = %s vs %s, want %s vs %s", i, m.A, m.B, wantPairs[i][0], wantPairs[i][1])
		}
		if m.Outcome.HandsPlayed != 4 || len(m.Outcome.Pairs) != 2 {
			t.Errorf("match %d played %d hands in %d pairs, want 4 in 2",
				i, m.Outcome.HandsPlayed, len(m.Outcome.Pairs))
		}
	}

	if len(res.Standings) != 3 {
		t.Fatalf("standings have %d rows, want 3", len(res.Standings))
	}
	totalNet := 0
	for _, s := range res.Standings {
		totalNet += s.NetChips
		if s.Hands != 8 {
			t.Errorf("%s played %d hands, want 8 across two matches", s.Name, s.Hands)
		}
		if got := tr.Ratings().Rating(s.Name); got != s.Elo {
			t.Errorf("%s standing elo %f does not match the table's %f", s.Name, s.Elo, got)
		}
	}
	if totalNet != 0 {
		t.Errorf("standings nets sum to %d, want 0", totalNet)
	}
	for i := 0; i+1 < len(res.Standings); i++ {
		if res.Standings[i].BBPerHand < res.Standings[i+1].BBPerHand {
			t.Errorf("standings out of order at %d: %f below %f",
				i, res.Standings[i].BBPerHand, res.Standings[i+1].BBPerHand)
		}
	}

	// Elo updates are zero sum, so the field's total never drifts.
	snap := tr.Ratings().Snapshot()
	if len(snap) != 3 {
		t.Fatalf("rating table has %d agents, want 3", len(snap))
	}
	sum := 0.0
	for _, r := range snap {
		sum += r
	}
	if math.Abs(sum-3*rating.DefaultInitial) > 1e-6 {
		t.Errorf("rating points drifted: sum = %f", sum)
	}
}

func TestTournamentDeterministicForSeed(t *testing.T) {
	t.Parallel()

	run := func() *TournamentResult {
		tr, err := NewTournament(testTournamentConfig(), testEntrants())
		if err != nil {
			t.Fatalf("NewTournament: %v", err)
		}
		res, err := tr.Run(t.Context())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		for i := range res.Matches {
			res.Matches[i].Outcome.SessionID = ""
		}
		return res
	}

	if first, second := run(), run(); !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced different tournaments:\n%+v\n%+v", first, second)
	}
}

func TestTournamentMatchSinkSeesEveryHand(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	tr, err := NewTournament(testTournamentConfig(), testEntrants(), WithMatchSink(sink))
	if err != nil {
		t.Fatalf("NewTournament: %v", err)
	}
	if _, err := tr.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := sink.all()
	if len(events) != 12 {
		t.Fatalf("sink saw %d hands, want 12 (3 matches of 4)", len(events))
	}
	perSession := make(map[string]int)
	for _, e := range events {
		perSession[e.SessionID]++
	}
	if len(perSession) != 3 {
		t.Errorf("events span %d sessions, want 3", len(perSession))
	}
	for id, n := range perSession {
		if n != 4 {
			t.Errorf("session %s emitted %d hands, want 4", id, n)
		}
	}
}

func TestTournamentSeededRatingTable(t *testing.T) {
	t.Parallel()

	tab := rating.NewTable(rating.DefaultInitial, rating.DefaultK)
	tab.Seed("caller", 1800)

	tr, err := NewTournament(testTournamentConfig(), testEntrants(), WithRatingTable(tab))
	if err != nil {
		t.Fatalf("NewTournament: %v", err)
	}
	if _, err := tr.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tr.Ratings() != tab {
		t.Error("tournament must use the supplied rating table")
	}
}

func TestTournamentValidation(t *testing.T) {
	t.Parallel()

	cfg := testTournamentConfig()
	entrants := testEntrants()

	if _, err := NewTournament(cfg, entrants[:1]); err == nil || !strings.Contains(err.Error(), "two entrants") {
		t.Errorf("single entrant error = %v", err)
	}

	dup := []Entrant{entrants[0], entrants[0], entrants[1]}
	if _, err := NewTournament(cfg, dup); err == nil || !strings.Contains(err.Error(), "duplicate entrant") {
		t.Errorf("duplicate name error = %v", err)
	}

	broken := []Entrant{entrants[0], {Name: "ghost"}}
	if _, err := NewTournament(cfg, broken); err == nil || !strings.Contains(err.Error(), "agent factory") {
		t.Errorf("nil factory error = %v", err)
	}

	odd := cfg
	odd.HandsPerMatch = 5
	if _, err := NewTournament(odd, entrants); err == nil || !strings.Contains(err.Error(), "pairs") {
		t.Errorf("odd duplicate hands error = %v", err)
	}
}
