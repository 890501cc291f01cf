package session

import (
	"fmt"
	"math"
	"sort"

	"github.com/chipbench/chipbench/internal/game"
)

// Stats accumulates one agent's results over a session, measured in big
// blinds per hand.
type Stats struct {
	Hands  int
	SumBB  float64
	SumBB2 float64
	Values []float64

	// Showdown accounting tracks all results, wins and losses, so the
	// showdown and non-showdown buckets always sum to SumBB.
	ShowdownHands   int
	ShowdownWins    int
	NonShowdownWins int
	ShowdownBB      float64
	NonShowdownBB   float64

	// Actions counts this agent's recorded decisions; Fallbacks those
	// answered by the engine after the agent failed to act.
	Actions   int
	Fallbacks int
}

// Record folds one hand result in from the given seat's perspective.
func (s *Stats) Record(r *game.Result, seat int) {
	netBB := float64(r.Net[seat]) / float64(r.Config.BigBlind)
	s.Hands++
	s.SumBB += netBB
	s.SumBB2 += netBB * netBB
	s.Values = append(s.Values, netBB)

	if r.Showdown {
		s.ShowdownHands++
		s.ShowdownBB += netBB
	} else {
		s.NonShowdownBB += netBB
	}
	if r.Net[seat] > 0 {
		if r.Showdown {
			s.ShowdownWins++
		} else {
			s.NonShowdownWins++
		}
	}

	for _, rec := range r.Actions {
		if rec.Seat != seat {
			continue
		}
		s.Actions++
		if rec.IsFallback {
			s.Fallbacks++
		}
	}
}

// Mean returns the arithmetic mean in big blinds per hand.
func (s *Stats) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

// Variance returns the sample variance.
func (s *Stats) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumBB2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

// StdDev returns the sample standard deviation.
func (s *Stats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Stats) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Stats) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median result.
func (s *Stats) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile in [0, 1], with
// linear interpolation between samples.
func (s *Stats) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Wins returns the number of hands this agent won chips in.
func (s *Stats) Wins() int {
	return s.ShowdownWins + s.NonShowdownWins
}

// WinRate returns the fraction of hands won.
func (s *Stats) WinRate() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.Wins()) / float64(s.Hands)
}

// FallbackRate returns the fraction of this agent's decisions answered by
// the engine fallback.
func (s *Stats) FallbackRate() float64 {
	if s.Actions == 0 {
		return 0
	}
	return float64(s.Fallbacks) / float64(s.Actions)
}

// Validate checks the internal accounting is consistent.
func (s *Stats) Validate() error {
	if math.Abs(s.SumBB-s.ShowdownBB-s.NonShowdownBB) > 1e-6 {
		return fmt.Errorf("ledger mismatch: total %.6f, showdown %.6f, non-showdown %.6f",
			s.SumBB, s.ShowdownBB, s.NonShowdownBB)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("have %d values for %d hands", len(s.Values), s.Hands)
	}
	if s.Wins() > s.Hands {
		return fmt.Errorf("%d wins over %d hands", s.Wins(), s.Hands)
	}
	if s.Fallbacks > s.Actions {
		return fmt.Errorf("%d fallbacks over %d actions", s.Fallbacks, s.Actions)
	}
	return nil
}
