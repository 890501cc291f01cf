// Package session runs multi-hand matches between decision agents and
// aggregates the chip outcomes that score them.
//
// A Session plays two fixed agents against each other, either with carried
// stacks and an alternating button or in duplicate mode, where hands run
// in mirrored pairs from fresh stacks so card luck nets out. A Tournament
// round-robins a field of entrants through concurrent sessions and keeps
// Elo ratings per pairing.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/randutil"
)

// HandEvent is one completed hand in session order.
type HandEvent struct {
	SessionID string
	Index     int
	Result    *game.Result
}

// Sink receives each completed hand. Implementations persist, broadcast or
// log results; a sink error aborts the session. Sinks shared between
// concurrently running sessions must be safe for concurrent use.
type Sink interface {
	HandPlayed(ctx context.Context, e HandEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e HandEvent) error

// HandPlayed calls f.
func (f SinkFunc) HandPlayed(ctx context.Context, e HandEvent) error {
	return f(ctx, e)
}

// Config describes a session between two agents.
type Config struct {
	ID         string    // assigned a fresh uuid when empty
	Names      [2]string // agent names, also used as seat names in hands
	SmallBlind int
	BigBlind   int
	Stacks     [2]int // starting chips per seat
	Hands      int    // maximum number of hands
	Seed       int64  // root seed; per-hand seeds derive from it

	// Duplicate runs hands in mirrored pairs: both hands of a pair use
	// the same deck and fresh stacks, with the agents swapping seats.
	Duplicate bool
}

// Validate checks the session is runnable.
func (c Config) Validate() error {
	if c.Hands < 1 {
		return errors.New("session needs at least one hand")
	}
	if c.Duplicate && c.Hands%2 != 0 {
		return fmt.Errorf("duplicate sessions play hands in pairs, got %d", c.Hands)
	}
	hand := game.Config{
		Names:      c.Names,
		SmallBlind: c.SmallBlind,
		BigBlind:   c.BigBlind,
		Stacks:     c.Stacks,
	}
	return hand.Validate()
}

// PairNet summarizes one mirrored pair of hands from the first agent's
// perspective. Rating updates consume these.
type PairNet struct {
	Net  int // first agent's combined net chips over the pair
	Pots int // chips through the pot across both hands
}

// Outcome is the final accounting of a session.
type Outcome struct {
	SessionID   string
	HandsPlayed int

	// FinalStacks carries chips from hand to hand. In duplicate mode
	// every hand restarts from the configured stacks, so it repeats them.
	FinalStacks [2]int

	Net      [2]int // cumulative net chips per agent
	PotChips int    // chips through the pot across all hands
	Stats    [2]Stats

	// Pairs is populated in duplicate mode only, one entry per mirrored
	// pair in play order.
	Pairs []PairNet
}

// Session plays hands between two fixed agents.
type Session struct {
	cfg    Config
	agents [2]game.Agent
	sinks  []Sink
	log    zerolog.Logger
}

// Option customizes a session.
type Option func(*Session)

// WithSink registers a sink for completed hands.
func WithSink(s Sink) Option {
	return func(se *Session) { se.sinks = append(se.sinks, s) }
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(se *Session) { se.log = logger }
}

// New validates the config and builds a session.
func New(cfg Config, agents [2]game.Agent, opts ...Option) (*Session, error) {
	for i := range cfg.Names {
		if cfg.Names[i] == "" {
			cfg.Names[i] = fmt.Sprintf("seat-%d", i)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	for seat, a := range agents {
		if a == nil {
			return nil, fmt.Errorf("seat %d has no agent", seat)
		}
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	s := &Session{cfg: cfg, agents: agents, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.cfg.ID
}

// Run plays the session to completion. The context is checked between
// hands only; on cancellation the outcome so far is returned alongside
// the error.
func (s *Session) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{SessionID: s.cfg.ID, FinalStacks: s.cfg.Stacks}

	var err error
	if s.cfg.Duplicate {
		err = s.runDuplicate(ctx, out)
	} else {
		err = s.runCarried(ctx, out)
	}
	if err != nil {
		return out, err
	}

	for seat := range out.Stats {
		if err := out.Stats[seat].Validate(); err != nil {
			return out, fmt.Errorf("session %s: %s statistics: %w", s.cfg.ID, s.cfg.Names[seat], err)
		}
	}
	s.log.Info().
		Str("session_id", s.cfg.ID).
		Int("hands", out.HandsPlayed).
		Ints("net", out.Net[:]).
		Msg("session complete")
	return out, nil
}

// runCarried plays with stacks carried between hands and the button
// alternating, until a seat busts or the hand budget runs out.
func (s *Session) runCarried(ctx context.Context, out *Outcome) error {
	stacks := s.cfg.Stacks
	for i := 0; i < s.cfg.Hands; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("session %s: %w", s.cfg.ID, err)
		}
		if stacks[0] == 0 || stacks[1] == 0 {
			s.log.Info().Str("session_id", s.cfg.ID).Int("hand", i).Msg("seat busted")
			break
		}

		cfg := game.Config{
			Names:      s.cfg.Names,
			SmallBlind: s.cfg.SmallBlind,
			BigBlind:   s.cfg.BigBlind,
			Stacks:     stacks,
			Button:     i % 2,
		}
		res, err := s.playHand(ctx, i, i, cfg, s.agents)
		if err != nil {
			return err
		}

		stacks = res.FinalStacks
		out.FinalStacks = stacks
		out.HandsPlayed++
		out.Net[0] += res.Net[0]
		out.Net[1] += res.Net[1]
		out.PotChips += res.FinalPot
		out.Stats[0].Record(res, 0)
		out.Stats[1].Record(res, 1)
	}
	return nil
}

// runDuplicate plays mirrored pairs: the same derived seed deals both
// hands of a pair, stacks reset each hand and the agents swap seats for
// the second hand, so each pair nets out the cards.
func (s *Session) runDuplicate(ctx context.Context, out *Outcome) error {
	for p := 0; p < s.cfg.Hands/2; p++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("session %s: %w", s.cfg.ID, err)
		}

		base := game.Config{
			Names:      s.cfg.Names,
			SmallBlind: s.cfg.SmallBlind,
			BigBlind:   s.cfg.BigBlind,
			Stacks:     s.cfg.Stacks,
		}
		mirror := base
		mirror.Names = [2]string{s.cfg.Names[1], s.cfg.Names[0]}

		resA, err := s.playHand(ctx, 2*p, p, base, s.agents)
		if err != nil {
			return err
		}
		resB, err := s.playHand(ctx, 2*p+1, p, mirror, [2]game.Agent{s.agents[1], s.agents[0]})
		if err != nil {
			return err
		}

		out.HandsPlayed += 2
		out.Net[0] += resA.Net[0] + resB.Net[1]
		out.Net[1] += resA.Net[1] + resB.Net[0]
		out.PotChips += resA.FinalPot + resB.FinalPot
		out.Stats[0].Record(resA, 0)
		out.Stats[0].Record(resB, 1)
		out.Stats[1].Record(resA, 1)
		out.Stats[1].Record(resB, 0)
		out.Pairs = append(out.Pairs, PairNet{
			Net:  resA.Net[0] + resB.Net[1],
			Pots: resA.FinalPot + resB.FinalPot,
		})
	}
	return nil
}

// playHand runs one hand with a seed derived from the session seed and
// feeds the result to the sinks.
func (s *Session) playHand(ctx context.Context, index, seedIndex int, cfg game.Config, agents [2]game.Agent) (*game.Result, error) {
	rng := randutil.New(randutil.DeriveSeed(s.cfg.Seed, seedIndex))
	h, err := game.NewHand(rng, cfg, agents)
	if err != nil {
		return nil, fmt.Errorf("session %s hand %d: %w", s.cfg.ID, index, err)
	}
	res, err := h.Play(ctx)
	if err != nil {
		return nil, fmt.Errorf("session %s hand %d: %w", s.cfg.ID, index, err)
	}

	s.log.Debug().
		Str("session_id", s.cfg.ID).
		Int("hand", index).
		Str("hand_id", res.HandID).
		Int("pot", res.FinalPot).
		Int("winner", res.Winner).
		Msg("hand complete")

	for _, sink := range s.sinks {
		if err := sink.HandPlayed(ctx, HandEvent{SessionID: s.cfg.ID, Index: index, Result: res}); err != nil {
			return nil, fmt.Errorf("session %s hand %d sink: %w", s.cfg.ID, index, err)
		}
	}
	return res, nil
}
