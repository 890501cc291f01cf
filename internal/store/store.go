// Package store persists benchmark results in Postgres via pgx.
//
// DB implements session.Sink so a running session can stream its hands
// straight into the hands table. Everything a hand needs to re-render or
// replay is stored, so reads reassemble complete game.Results.
package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/session"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("not found")

// DB wraps a pgx pool with the benchmark's queries.
type DB struct {
	*pgxpool.Pool
}

// Open connects a pool and verifies the database is reachable.
func Open(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &DB{pool}, nil
}

// Migrate applies the embedded schema. The statements are idempotent, so
// the call is safe on every start.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: applying schema: %w", err)
	}
	return nil
}

// UpsertAgent registers an agent by name and returns its id.
func (db *DB) UpsertAgent(ctx context.Context, name, kind, model string) (int64, error) {
	var m any
	if model != "" {
		m = model
	}
	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO agents(name, kind, model)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		   SET kind = EXCLUDED.kind,
		       model = EXCLUDED.model
		RETURNING id
	`, name, kind, m).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: upserting agent %s: %w", name, err)
	}
	return id, nil
}

// SessionSeat binds an agent to a seat for a session.
type SessionSeat struct {
	AgentID    int64
	StartStack int
}

// CreateSession records a session and its seat assignments.
func (db *DB) CreateSession(ctx context.Context, cfg session.Config, seats [2]SessionSeat) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("store: creating session %s: %w", cfg.ID, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO sessions(id, small_blind, big_blind, hands_max, duplicate, seed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, cfg.ID, cfg.SmallBlind, cfg.BigBlind, cfg.Hands, cfg.Duplicate, cfg.Seed); err != nil {
		return fmt.Errorf("store: inserting session %s: %w", cfg.ID, err)
	}
	for seat, s := range seats {
		if _, err := tx.Exec(ctx, `
			INSERT INTO session_seats(session_id, seat, agent_id, start_stack)
			VALUES ($1, $2, $3, $4)
		`, cfg.ID, seat, s.AgentID, s.StartStack); err != nil {
			return fmt.Errorf("store: inserting session %s seat %d: %w", cfg.ID, seat, err)
		}
	}
	return tx.Commit(ctx)
}

// HandPlayed implements session.Sink, inserting one row per completed
// hand. The pool makes it safe for concurrently running sessions.
func (db *DB) HandPlayed(ctx context.Context, e session.HandEvent) error {
	row, err := encodeHand(e)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO hands(
			id, session_id, hand_no, config, hole_cards, board,
			actions, awards, final_stacks, winner, pot, showdown, fallbacks
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, row.ID, row.SessionID, row.HandNo, row.Config, row.HoleCards, row.Board,
		row.Actions, row.Awards, row.FinalStacks, row.Winner, row.Pot, row.Showdown, row.Fallbacks)
	if err != nil {
		return fmt.Errorf("store: inserting hand %s: %w", row.ID, err)
	}
	return nil
}

// FinishSession stamps the end time and writes each seat's final
// accounting.
func (db *DB) FinishSession(ctx context.Context, out *session.Outcome) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("store: finishing session %s: %w", out.SessionID, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE sessions SET ended_at = now() WHERE id = $1
	`, out.SessionID); err != nil {
		return fmt.Errorf("store: finishing session %s: %w", out.SessionID, err)
	}
	for seat := range out.Stats {
		st := out.Stats[seat]
		if _, err := tx.Exec(ctx, `
			UPDATE session_seats
			   SET end_stack = $3,
			       net_chips = $4,
			       hands = $5,
			       fallbacks = $6,
			       decisions = $7
			 WHERE session_id = $1 AND seat = $2
		`, out.SessionID, seat, out.FinalStacks[seat], out.Net[seat],
			st.Hands, st.Fallbacks, st.Actions); err != nil {
			return fmt.Errorf("store: finishing session %s seat %d: %w", out.SessionID, seat, err)
		}
	}
	return tx.Commit(ctx)
}

// UpdateRating stores an agent's rating and adds to its career hand count.
func (db *DB) UpdateRating(ctx context.Context, agentID int64, elo float64, handsInc int) error {
	if _, err := db.Exec(ctx, `
		INSERT INTO ratings(agent_id, elo, hands)
		VALUES ($1, $2, $3)
		ON CONFLICT (agent_id) DO UPDATE
		   SET elo = EXCLUDED.elo,
		       hands = ratings.hands + EXCLUDED.hands,
		       updated_at = now()
	`, agentID, elo, handsInc); err != nil {
		return fmt.Errorf("store: updating rating for agent %d: %w", agentID, err)
	}
	return nil
}

// AgentRatings returns stored ratings by agent name, for seeding a rating
// table before a run.
func (db *DB) AgentRatings(ctx context.Context) (map[string]float64, error) {
	rows, err := db.Query(ctx, `
		SELECT a.name, r.elo
		  FROM ratings r
		  JOIN agents a ON a.id = r.agent_id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: loading ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var elo float64
		if err := rows.Scan(&name, &elo); err != nil {
			return nil, fmt.Errorf("store: loading ratings: %w", err)
		}
		out[name] = elo
	}
	return out, rows.Err()
}

// LeaderboardRow is one agent's aggregate line.
type LeaderboardRow struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Model     string  `json:"model,omitempty"`
	Elo       float64 `json:"elo"`
	Hands     int64   `json:"hands"`
	NetChips  int64   `json:"net_chips"`
	Fallbacks int64   `json:"fallbacks"`
	Decisions int64   `json:"decisions"`
}

// ChipsPerHand returns the mean net chips per hand.
func (r LeaderboardRow) ChipsPerHand() float64 {
	if r.Hands == 0 {
		return 0
	}
	return float64(r.NetChips) / float64(r.Hands)
}

// FallbackRate returns the fraction of decisions answered by the engine
// fallback.
func (r LeaderboardRow) FallbackRate() float64 {
	if r.Decisions == 0 {
		return 0
	}
	return float64(r.Fallbacks) / float64(r.Decisions)
}

// Leaderboard returns agent standings ordered by rating.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := db.Query(ctx, `
		SELECT a.name, a.kind, COALESCE(a.model, ''),
		       COALESCE(r.elo, 1500),
		       COALESCE(SUM(ss.hands), 0),
		       COALESCE(SUM(ss.net_chips), 0),
		       COALESCE(SUM(ss.fallbacks), 0),
		       COALESCE(SUM(ss.decisions), 0)
		  FROM agents a
		  LEFT JOIN ratings r ON r.agent_id = a.id
		  LEFT JOIN session_seats ss ON ss.agent_id = a.id
		 GROUP BY a.id, a.name, a.kind, a.model, r.elo
		 ORDER BY COALESCE(r.elo, 1500) DESC, a.name
		 LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Name, &r.Kind, &r.Model, &r.Elo,
			&r.Hands, &r.NetChips, &r.Fallbacks, &r.Decisions); err != nil {
			return nil, fmt.Errorf("store: leaderboard: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SeatDetail is one seat's line in a stored session.
type SeatDetail struct {
	Seat       int    `json:"seat"`
	Agent      string `json:"agent"`
	StartStack int    `json:"start_stack"`
	EndStack   int    `json:"end_stack"`
	NetChips   int    `json:"net_chips"`
	Hands      int    `json:"hands"`
	Fallbacks  int    `json:"fallbacks"`
	Decisions  int    `json:"decisions"`
}

// SessionDetail describes one stored session.
type SessionDetail struct {
	ID         string       `json:"id"`
	SmallBlind int          `json:"small_blind"`
	BigBlind   int          `json:"big_blind"`
	HandsMax   int          `json:"hands_max"`
	Duplicate  bool         `json:"duplicate"`
	Seed       int64        `json:"seed"`
	StartedAt  time.Time    `json:"started_at"`
	EndedAt    *time.Time   `json:"ended_at,omitempty"`
	Seats      []SeatDetail `json:"seats"`
}

// GetSession loads a session and its seats. Returns ErrNotFound for an
// unknown id.
func (db *DB) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	var d SessionDetail
	err := db.QueryRow(ctx, `
		SELECT id, small_blind, big_blind, hands_max, duplicate, seed, started_at, ended_at
		  FROM sessions
		 WHERE id = $1
	`, id).Scan(&d.ID, &d.SmallBlind, &d.BigBlind, &d.HandsMax, &d.Duplicate, &d.Seed, &d.StartedAt, &d.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: session %s: %w", id, err)
	}

	rows, err := db.Query(ctx, `
		SELECT ss.seat, a.name, ss.start_stack,
		       COALESCE(ss.end_stack, ss.start_stack),
		       COALESCE(ss.net_chips, 0),
		       COALESCE(ss.hands, 0),
		       COALESCE(ss.fallbacks, 0),
		       COALESCE(ss.decisions, 0)
		  FROM session_seats ss
		  JOIN agents a ON a.id = ss.agent_id
		 WHERE ss.session_id = $1
		 ORDER BY ss.seat
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: session %s seats: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SeatDetail
		if err := rows.Scan(&s.Seat, &s.Agent, &s.StartStack, &s.EndStack,
			&s.NetChips, &s.Hands, &s.Fallbacks, &s.Decisions); err != nil {
			return nil, fmt.Errorf("store: session %s seats: %w", id, err)
		}
		d.Seats = append(d.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: session %s seats: %w", id, err)
	}
	return &d, nil
}

// SessionHands returns a session's stored hands in play order.
func (db *DB) SessionHands(ctx context.Context, id string, limit, offset int) ([]*game.Result, error) {
	rows, err := db.Query(ctx, `
		SELECT id, config, hole_cards, board, actions, awards, final_stacks, winner, pot, showdown
		  FROM hands
		 WHERE session_id = $1
		 ORDER BY hand_no
		 LIMIT $2 OFFSET $3
	`, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: session %s hands: %w", id, err)
	}
	return scanResults(rows)
}

// RecentHands returns the newest stored hands across all sessions.
func (db *DB) RecentHands(ctx context.Context, limit int) ([]*game.Result, error) {
	rows, err := db.Query(ctx, `
		SELECT id, config, hole_cards, board, actions, awards, final_stacks, winner, pot, showdown
		  FROM hands
		 ORDER BY played_at DESC, hand_no DESC
		 LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent hands: %w", err)
	}
	return scanResults(rows)
}

func scanResults(rows pgx.Rows) ([]*game.Result, error) {
	defer rows.Close()

	var out []*game.Result
	for rows.Next() {
		var (
			id                                           string
			config, hole, board, actions, awards, stacks []byte
			winner, pot                                  int
			showdown                                     bool
		)
		if err := rows.Scan(&id, &config, &hole, &board, &actions, &awards,
			&stacks, &winner, &pot, &showdown); err != nil {
			return nil, fmt.Errorf("store: scanning hand: %w", err)
		}
		r, err := decodeHand(id, config, hole, board, actions, awards, stacks, winner, pot, showdown)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// handRow holds the column values for one hands insert, JSON pieces
// pre-encoded.
type handRow struct {
	ID          string
	SessionID   string
	HandNo      int
	Config      string
	HoleCards   string
	Board       string
	Actions     string
	Awards      string
	FinalStacks string
	Winner      int
	Pot         int
	Showdown    bool
	Fallbacks   int
}

func encodeHand(e session.HandEvent) (handRow, error) {
	r := e.Result
	row := handRow{
		ID:        r.HandID,
		SessionID: e.SessionID,
		HandNo:    e.Index,
		Winner:    r.Winner,
		Pot:       r.FinalPot,
		Showdown:  r.Showdown,
	}
	for _, rec := range r.Actions {
		if rec.IsFallback {
			row.Fallbacks++
		}
	}
	for _, enc := range []struct {
		dst *string
		src any
	}{
		{&row.Config, r.Config},
		{&row.HoleCards, r.HoleCards},
		{&row.Board, r.Board},
		{&row.Actions, r.Actions},
		{&row.Awards, r.Awards},
		{&row.FinalStacks, r.FinalStacks},
	} {
		b, err := json.Marshal(enc.src)
		if err != nil {
			return handRow{}, fmt.Errorf("store: encoding hand %s: %w", r.HandID, err)
		}
		*enc.dst = string(b)
	}
	return row, nil
}

// decodeHand reassembles a stored hand into a complete result. Net falls
// out of the stored stacks, the result's own invariant.
func decodeHand(id string, config, hole, board, actions, awards, stacks []byte, winner, pot int, showdown bool) (*game.Result, error) {
	r := &game.Result{HandID: id, Winner: winner, FinalPot: pot, Showdown: showdown}
	for _, dec := range []struct {
		src []byte
		dst any
	}{
		{config, &r.Config},
		{hole, &r.HoleCards},
		{board, &r.Board},
		{actions, &r.Actions},
		{awards, &r.Awards},
		{stacks, &r.FinalStacks},
	} {
		if err := json.Unmarshal(dec.src, dec.dst); err != nil {
			return nil, fmt.Errorf("store: decoding hand %s: %w", id, err)
		}
	}
	for seat := range r.Net {
		r.Net[seat] = r.FinalStacks[seat] - r.Config.Stacks[seat]
	}
	return r, nil
}
