package session

import (
	"math"
	"testing"

	"github.com/chipbench/chipbench/internal/game"
)

func handResult(net int, showdown bool, fallbacks int) *game.Result {
	r := &game.Result{
		Config:   game.Config{SmallBlind: 50, BigBlind: 100, Stacks: [2]int{10000, 10000}},
		Net:      [2]int{net, -net},
		FinalPot: 2 * abs(net),
		Showdown: showdown,
		Actions: []game.ActionRecord{
			{Seat: 0, Action: game.Check},
			{Seat: 1, Action: game.Check},
		},
	}
	for i := 0; i < fallbacks; i++ {
		r.Actions = append(r.Actions, game.ActionRecord{Seat: 0, Action: game.Check, IsFallback: true})
	}
	return r
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestStatsRecord(t *testing.T) {
	t.Parallel()

	var s Stats
	s.Record(handResult(300, true, 0), 0)
	s.Record(handResult(-100, false, 2), 0)

	if s.Hands != 2 {
		t.Errorf("hands = %d, want 2", s.Hands)
	}
	if s.SumBB != 2 {
		t.Errorf("sum = %f bb, want 2 (3 - 1)", s.SumBB)
	}
	if s.ShowdownHands != 1 || s.ShowdownWins != 1 || s.NonShowdownWins != 0 {
		t.Errorf("showdown split = %d hands, %d wins, %d non-showdown wins",
			s.ShowdownHands, s.ShowdownWins, s.NonShowdownWins)
	}
	if s.ShowdownBB != 3 || s.NonShowdownBB != -1 {
		t.Errorf("bb split = %f showdown, %f non-showdown", s.ShowdownBB, s.NonShowdownBB)
	}
	if s.Actions != 4 || s.Fallbacks != 2 {
		t.Errorf("actions = %d with %d fallbacks, want 4 with 2", s.Actions, s.Fallbacks)
	}
	if got := s.FallbackRate(); got != 0.5 {
		t.Errorf("fallback rate = %f, want 0.5", got)
	}
	if got := s.WinRate(); got != 0.5 {
		t.Errorf("win rate = %f, want 0.5", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("consistent stats must validate: %v", err)
	}
}

func TestStatsRecordOtherSeat(t *testing.T) {
	t.Parallel()

	var s Stats
	s.Record(handResult(300, true, 1), 1)

	if s.SumBB != -3 {
		t.Errorf("seat 1 sum = %f bb, want -3", s.SumBB)
	}
	if s.Wins() != 0 {
		t.Errorf("losing seat recorded %d wins", s.Wins())
	}
	if s.Fallbacks != 0 {
		t.Errorf("seat 0 fallbacks leaked into seat 1, count = %d", s.Fallbacks)
	}
}

func TestStatsMoments(t *testing.T) {
	t.Parallel()

	var s Stats
	for _, net := range []int{100, -100, 300, -300} {
		s.Record(handResult(net, true, 0), 0)
	}

	if got := s.Mean(); got != 0 {
		t.Errorf("mean = %f, want 0", got)
	}
	if got, want := s.Variance(), 20.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("variance = %f, want %f", got, want)
	}
	if got, want := s.StdError(), math.Sqrt(20.0/3.0)/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("std error = %f, want %f", got, want)
	}
	low, high := s.ConfidenceInterval95()
	if low >= 0 || high <= 0 || math.Abs(low+high) > 1e-9 {
		t.Errorf("95%% CI = [%f, %f], want symmetric around 0", low, high)
	}
	if got := s.Median(); got != 0 {
		t.Errorf("median = %f, want 0", got)
	}
	if got := s.Percentile(0); got != -3 {
		t.Errorf("p0 = %f, want -3", got)
	}
	if got := s.Percentile(1); got != 3 {
		t.Errorf("p100 = %f, want 3", got)
	}
	if got, want := s.Percentile(0.25), -1.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("p25 = %f, want %f", got, want)
	}
}

func TestStatsEmpty(t *testing.T) {
	t.Parallel()

	var s Stats
	if s.Mean() != 0 || s.Variance() != 0 || s.StdError() != 0 || s.Median() != 0 {
		t.Error("empty stats must report zero moments")
	}
	if s.WinRate() != 0 || s.FallbackRate() != 0 {
		t.Error("empty stats must report zero rates")
	}
}

func TestStatsValidateCatchesLedgerDrift(t *testing.T) {
	t.Parallel()

	var s Stats
	s.Record(handResult(100, true, 0), 0)
	s.ShowdownBB += 5
	if err := s.Validate(); err == nil {
		t.Error("drifted ledger must fail validation")
	}
}
