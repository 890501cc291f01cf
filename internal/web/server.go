// Package web serves the benchmark's reporting API and live hand feed.
// Handlers read through narrow interfaces so tests run against fakes
// instead of a database.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Leaderboard reads agent standings.
type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardRow, error)
}

// SessionReader reads stored sessions and their hands.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*store.SessionDetail, error)
	SessionHands(ctx context.Context, id string, limit, offset int) ([]*game.Result, error)
	RecentHands(ctx context.Context, limit int) ([]*game.Result, error)
}

// Server wires the reporting handlers and the live hub into one router.
type Server struct {
	boards   Leaderboard
	sessions SessionReader
	hub      *Hub
	log      zerolog.Logger
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithServerLogger attaches a logger.
func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) { s.log = logger }
}

// NewServer builds the reporting server. A nil hub drops the live feed
// route; nil sources answer the read endpoints with 503, for processes
// running without a database.
func NewServer(boards Leaderboard, sessions SessionReader, hub *Hub, opts ...ServerOption) *Server {
	s := &Server{
		boards:   boards,
		sessions: sessions,
		hub:      hub,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler for the full surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/leaderboard", s.handleLeaderboard)
	r.Get("/api/hands", s.handleRecentHands)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleSession)
		r.Get("/hands", s.handleSessionHands)
	})
	if s.hub != nil {
		r.Get("/ws/live", s.hub.ServeWS)
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.boards == nil {
		noStore(w)
		return
	}
	rows, err := s.boards.Leaderboard(r.Context(), queryLimit(r))
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, map[string]any{"rows": rows})
}

func (s *Server) handleRecentHands(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		noStore(w)
		return
	}
	hands, err := s.sessions.RecentHands(r.Context(), queryLimit(r))
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, map[string]any{"rows": hands})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		noStore(w)
		return
	}
	id := chi.URLParam(r, "id")
	detail, err := s.sessions.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) handleSessionHands(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		noStore(w)
		return
	}
	id := chi.URLParam(r, "id")
	hands, err := s.sessions.SessionHands(r.Context(), id,
		queryLimit(r), queryInt(r, "offset", 0))
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, map[string]any{"rows": hands})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// noStore answers read endpoints on a server running without a database,
// as in live-feed-only mode.
func noStore(w http.ResponseWriter) {
	http.Error(w, "no database configured", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func queryInt(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func queryLimit(r *http.Request) int {
	return min(queryInt(r, "limit", defaultLimit), maxLimit)
}
