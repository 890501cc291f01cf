package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/randutil"
	"github.com/chipbench/chipbench/internal/rating"
)

// Entrant is one tournament competitor. NewAgent is called once per match
// with a match-derived seed, so stateful agents never share state between
// concurrently running sessions.
type Entrant struct {
	Name     string
	NewAgent func(seed int64) game.Agent
}

// TournamentConfig describes a round-robin tournament.
type TournamentConfig struct {
	SmallBlind    int
	BigBlind      int
	Stack         int // starting chips per seat in every match
	HandsPerMatch int
	Seed          int64
	Duplicate     bool // run matches as duplicate sessions
	Concurrency   int  // max concurrent matches; 0 means unlimited
}

// Standing is one entrant's aggregate line.
type Standing struct {
	Name         string
	Hands        int
	NetChips     int
	BBPerHand    float64
	WinRate      float64
	FallbackRate float64
	Elo          float64
}

// MatchResult pairs two entrant names with their session outcome.
type MatchResult struct {
	A, B    string
	Outcome *Outcome
}

// TournamentResult carries the standings, best first, and every match
// outcome in pairing order.
type TournamentResult struct {
	Standings []Standing
	Matches   []MatchResult
}

// Tournament runs every unordered pair of entrants through a session.
type Tournament struct {
	cfg      TournamentConfig
	entrants []Entrant
	ratings  *rating.Table
	sinks    []Sink
	log      zerolog.Logger
}

// TournamentOption customizes a tournament.
type TournamentOption func(*Tournament)

// WithMatchSink registers a sink passed to every match session. It is
// called from concurrent matches and must be safe for concurrent use.
func WithMatchSink(s Sink) TournamentOption {
	return func(t *Tournament) { t.sinks = append(t.sinks, s) }
}

// WithRatingTable supplies a pre-seeded rating table, typically loaded
// from storage.
func WithRatingTable(tab *rating.Table) TournamentOption {
	return func(t *Tournament) { t.ratings = tab }
}

// WithTournamentLogger attaches a logger.
func WithTournamentLogger(logger zerolog.Logger) TournamentOption {
	return func(t *Tournament) { t.log = logger }
}

// NewTournament validates the field and the match settings.
func NewTournament(cfg TournamentConfig, entrants []Entrant, opts ...TournamentOption) (*Tournament, error) {
	if len(entrants) < 2 {
		return nil, errors.New("tournament needs at least two entrants")
	}
	seen := make(map[string]bool, len(entrants))
	for i, e := range entrants {
		if e.Name == "" {
			return nil, fmt.Errorf("entrant %d has no name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate entrant name %q", e.Name)
		}
		seen[e.Name] = true
		if e.NewAgent == nil {
			return nil, fmt.Errorf("entrant %q has no agent factory", e.Name)
		}
	}

	probe := Config{
		Names:      [2]string{entrants[0].Name, entrants[1].Name},
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		Stacks:     [2]int{cfg.Stack, cfg.Stack},
		Hands:      cfg.HandsPerMatch,
		Duplicate:  cfg.Duplicate,
	}
	if err := probe.Validate(); err != nil {
		return nil, fmt.Errorf("tournament config: %w", err)
	}

	t := &Tournament{
		cfg:      cfg,
		entrants: entrants,
		ratings:  rating.NewTable(rating.DefaultInitial, rating.DefaultK),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Ratings returns the tournament's rating table.
func (t *Tournament) Ratings() *rating.Table {
	return t.ratings
}

// Run plays all pairings. Independent matches run concurrently on an
// errgroup with per-match derived seeds; rating updates and standings are
// computed after the last match finishes, so nothing shared mutates while
// matches are in flight.
func (t *Tournament) Run(ctx context.Context) (*TournamentResult, error) {
	type pairing struct{ a, b int }
	var matches []pairing
	for i := 0; i < len(t.entrants); i++ {
		for j := i + 1; j < len(t.entrants); j++ {
			matches = append(matches, pairing{i, j})
		}
	}

	outcomes := make([]*Outcome, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	if t.cfg.Concurrency > 0 {
		g.SetLimit(t.cfg.Concurrency)
	}
	for mi, m := range matches {
		g.Go(func() error {
			a, b := t.entrants[m.a], t.entrants[m.b]
			seed := randutil.DeriveSeed(t.cfg.Seed, mi)
			cfg := Config{
				Names:      [2]string{a.Name, b.Name},
				SmallBlind: t.cfg.SmallBlind,
				BigBlind:   t.cfg.BigBlind,
				Stacks:     [2]int{t.cfg.Stack, t.cfg.Stack},
				Hands:      t.cfg.HandsPerMatch,
				Seed:       seed,
				Duplicate:  t.cfg.Duplicate,
			}
			agents := [2]game.Agent{
				a.NewAgent(randutil.DeriveSeed(seed, 0)),
				b.NewAgent(randutil.DeriveSeed(seed, 1)),
			}

			opts := make([]Option, 0, len(t.sinks)+1)
			for _, sink := range t.sinks {
				opts = append(opts, WithSink(sink))
			}
			opts = append(opts, WithLogger(t.log))

			sess, err := New(cfg, agents, opts...)
			if err != nil {
				return fmt.Errorf("match %s vs %s: %w", a.Name, b.Name, err)
			}
			out, err := sess.Run(gctx)
			if err != nil {
				return fmt.Errorf("match %s vs %s: %w", a.Name, b.Name, err)
			}
			outcomes[mi] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &TournamentResult{Matches: make([]MatchResult, len(matches))}
	for mi, m := range matches {
		a, b := t.entrants[m.a], t.entrants[m.b]
		result.Matches[mi] = MatchResult{A: a.Name, B: b.Name, Outcome: outcomes[mi]}
		t.rate(a.Name, b.Name, outcomes[mi])
	}
	result.Standings = t.standings(result.Matches)
	return result, nil
}

// rate feeds a match outcome into the Elo table: one update per mirrored
// pair when the session ran in duplicate mode, otherwise a single update
// from the per-hand averages.
func (t *Tournament) rate(a, b string, out *Outcome) {
	if len(out.Pairs) > 0 {
		for _, p := range out.Pairs {
			t.ratings.Update(a, b, p.Net, p.Pots, t.cfg.BigBlind)
		}
		return
	}
	if out.HandsPlayed == 0 {
		return
	}
	t.ratings.Update(a, b, out.Net[0]/out.HandsPlayed, out.PotChips/out.HandsPlayed, t.cfg.BigBlind)
}

func (t *Tournament) standings(matches []MatchResult) []Standing {
	type agg struct {
		hands, net         int
		sumBB              float64
		wins               int
		actions, fallbacks int
	}
	byName := make(map[string]*agg, len(t.entrants))
	for _, e := range t.entrants {
		byName[e.Name] = &agg{}
	}
	for _, m := range matches {
		for seat, name := range []string{m.A, m.B} {
			a := byName[name]
			st := m.Outcome.Stats[seat]
			a.hands += st.Hands
			a.net += m.Outcome.Net[seat]
			a.sumBB += st.SumBB
			a.wins += st.Wins()
			a.actions += st.Actions
			a.fallbacks += st.Fallbacks
		}
	}

	standings := make([]Standing, 0, len(t.entrants))
	for _, e := range t.entrants {
		a := byName[e.Name]
		s := Standing{Name: e.Name, Hands: a.hands, NetChips: a.net, Elo: t.ratings.Rating(e.Name)}
		if a.hands > 0 {
			s.BBPerHand = a.sumBB / float64(a.hands)
			s.WinRate = float64(a.wins) / float64(a.hands)
		}
		if a.actions > 0 {
			s.FallbackRate = float64(a.fallbacks) / float64(a.actions)
		}
		standings = append(standings, s)
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].BBPerHand != standings[j].BBPerHand {
			return standings[i].BBPerHand > standings[j].BBPerHand
		}
		return standings[i].Name < standings[j].Name
	})
	return standings
}
