package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/config"
	"github.com/chipbench/chipbench/internal/session"
	"github.com/chipbench/chipbench/internal/store"
)

// dialStore connects to the configured Postgres instance.
func dialStore(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	dsn := cfg.Database.DSN()
	if dsn == "" {
		return nil, fmt.Errorf("no database configured: set %s or the database url", cfg.Database.URLEnv)
	}
	return store.Open(ctx, dsn)
}

// openStore connects and applies the schema when the config asks for it.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store.DB, error) {
	db, err := dialStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug().Msg("schema applied")
	}
	return db, nil
}

// registerAgents upserts every agent block and returns name to id.
func registerAgents(ctx context.Context, db *store.DB, blocks []config.AgentConfig) (map[string]int64, error) {
	ids := make(map[string]int64, len(blocks))
	for _, ac := range blocks {
		id, err := db.UpsertAgent(ctx, ac.Name, ac.Kind, ac.Model)
		if err != nil {
			return nil, err
		}
		ids[ac.Name] = id
	}
	return ids, nil
}

// matchRecorder buffers hand events per session. Tournament matches run
// before their session rows exist, so hands are held here and written
// once the match is registered.
type matchRecorder struct {
	mu     sync.Mutex
	events map[string][]session.HandEvent
}

func newMatchRecorder() *matchRecorder {
	return &matchRecorder{events: make(map[string][]session.HandEvent)}
}

// HandPlayed implements session.Sink.
func (r *matchRecorder) HandPlayed(ctx context.Context, e session.HandEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.SessionID] = append(r.events[e.SessionID], e)
	return nil
}

// take removes and returns a session's buffered hands.
func (r *matchRecorder) take(id string) []session.HandEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[id]
	delete(r.events, id)
	return evs
}

// persistMatch writes one finished tournament match: the session row, its
// seats, every buffered hand and both seats' final accounting.
func persistMatch(ctx context.Context, db *store.DB, tc session.TournamentConfig, seed int64,
	m session.MatchResult, ids map[string]int64, events []session.HandEvent) error {
	cfg := session.Config{
		ID:         m.Outcome.SessionID,
		Names:      [2]string{m.A, m.B},
		SmallBlind: tc.SmallBlind,
		BigBlind:   tc.BigBlind,
		Stacks:     [2]int{tc.Stack, tc.Stack},
		Hands:      tc.HandsPerMatch,
		Seed:       seed,
		Duplicate:  tc.Duplicate,
	}
	seats := [2]store.SessionSeat{
		{AgentID: ids[m.A], StartStack: tc.Stack},
		{AgentID: ids[m.B], StartStack: tc.Stack},
	}
	if err := db.CreateSession(ctx, cfg, seats); err != nil {
		return err
	}
	for _, e := range events {
		if err := db.HandPlayed(ctx, e); err != nil {
			return err
		}
	}
	return db.FinishSession(ctx, m.Outcome)
}
