package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/cmd/chipbench/shared"
	"github.com/chipbench/chipbench/internal/store"
	"github.com/chipbench/chipbench/internal/web"
)

// ServeCmd runs the reporting API over the configured database.
type ServeCmd struct {
	Config string `help:"Path to HCL config file" default:"chipbench.hcl"`
	Addr   string `help:"Listen address (overrides config)"`
	Debug  bool   `help:"Enable debug logging"`
}

func (c *ServeCmd) Run() error {
	cfg, logger, closeLog, err := loadConfigAndLogger(c.Config, c.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := shared.SetupSignalHandler(logger)
	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	addr := c.Addr
	if addr == "" {
		addr = cfg.Server.ListenAddress()
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: web.NewServer(db, db, nil, web.WithServerLogger(logger)).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info().Str("addr", addr).Msg("serving reporting API")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// startLiveServer runs the live hand feed alongside a session or
// tournament. The db may be nil; read endpoints then answer 503 while
// /ws/live works. The returned stop function disconnects clients and
// shuts the listener down.
func startLiveServer(addr string, db *store.DB, logger zerolog.Logger) (*web.Hub, func()) {
	hub := web.NewHub(web.WithHubLogger(logger))
	var boards web.Leaderboard
	var sessions web.SessionReader
	if db != nil {
		boards, sessions = db, db
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: web.NewServer(boards, sessions, hub, web.WithServerLogger(logger)).Router(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("live server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving live feed")

	stop := func() {
		hub.Close()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}
	return hub, stop
}
