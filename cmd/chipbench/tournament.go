package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/chipbench/chipbench/cmd/chipbench/shared"
	"github.com/chipbench/chipbench/internal/randutil"
	"github.com/chipbench/chipbench/internal/rating"
	"github.com/chipbench/chipbench/internal/session"
	"github.com/chipbench/chipbench/internal/store"
)

// TournamentCmd runs a round-robin tournament over every agent block in
// the config file.
type TournamentCmd struct {
	Config      string `help:"Path to HCL config file" default:"chipbench.hcl"`
	Hands       int    `default:"0" help:"Hands per match (default from config)"`
	Duplicate   bool   `help:"Play duplicate pairs with mirrored hole cards"`
	Concurrency int    `default:"0" help:"Matches to run in parallel (default from config)"`
	Seed        *int64 `help:"Deterministic RNG seed (optional)"`
	Persist     bool   `help:"Record matches and ratings in the configured database"`
	Serve       string `help:"Serve the live feed and API on this address while running (e.g. :8080)"`
	Debug       bool   `help:"Enable debug logging"`
}

func (c *TournamentCmd) Run() error {
	cfg, logger, closeLog, err := loadConfigAndLogger(c.Config, c.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	if len(cfg.Agents) < 2 {
		return fmt.Errorf("tournament needs at least two agent blocks in %s", c.Config)
	}
	entrants := make([]session.Entrant, 0, len(cfg.Agents))
	for _, ac := range cfg.Agents {
		ent, err := newEntrant(ac, logger)
		if err != nil {
			return err
		}
		entrants = append(entrants, ent)
	}

	seed := resolveSeed(c.Seed, cfg.Match.Seed, logger)
	hands := c.Hands
	if hands == 0 {
		hands = cfg.Match.Hands
	}
	conc := c.Concurrency
	if conc == 0 {
		conc = cfg.Match.Concurrency
	}
	tc := session.TournamentConfig{
		SmallBlind:    cfg.Match.SmallBlind,
		BigBlind:      cfg.Match.BigBlind,
		Stack:         cfg.Match.Stack,
		HandsPerMatch: hands,
		Seed:          seed,
		Duplicate:     cfg.Match.Duplicate || c.Duplicate,
		Concurrency:   conc,
	}

	ctx := shared.SetupSignalHandler(logger)
	opts := []session.TournamentOption{session.WithTournamentLogger(logger)}

	var db *store.DB
	var rec *matchRecorder
	if c.Persist {
		db, err = openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		rec = newMatchRecorder()
		opts = append(opts, session.WithMatchSink(rec))

		stored, err := db.AgentRatings(ctx)
		if err != nil {
			return err
		}
		tab := rating.NewTable(rating.DefaultInitial, rating.DefaultK)
		for name, elo := range stored {
			tab.Seed(name, elo)
		}
		opts = append(opts, session.WithRatingTable(tab))
	}
	if c.Serve != "" {
		hub, stop := startLiveServer(c.Serve, db, logger)
		defer stop()
		opts = append(opts, session.WithMatchSink(hub))
	}

	tour, err := session.NewTournament(tc, entrants, opts...)
	if err != nil {
		return err
	}
	logger.Info().
		Int("entrants", len(entrants)).
		Int("hands_per_match", hands).
		Bool("duplicate", tc.Duplicate).
		Msg("starting tournament")

	res, err := tour.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("tournament interrupted")
		return nil
	}
	if err != nil {
		return err
	}
	printStandings(res.Standings)

	if db != nil {
		finCtx, finCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer finCancel()
		ids, err := registerAgents(finCtx, db, cfg.Agents)
		if err != nil {
			return err
		}
		for mi, m := range res.Matches {
			matchSeed := randutil.DeriveSeed(seed, mi)
			if err := persistMatch(finCtx, db, tc, matchSeed, m, ids, rec.take(m.Outcome.SessionID)); err != nil {
				return err
			}
		}
		for _, st := range res.Standings {
			if err := db.UpdateRating(finCtx, ids[st.Name], st.Elo, st.Hands); err != nil {
				return err
			}
		}
		logger.Info().Int("matches", len(res.Matches)).Msg("results persisted")
	}
	return nil
}

func printStandings(standings []session.Standing) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("#"),
		headerStyle.Render("agent"),
		headerStyle.Render("elo"),
		headerStyle.Render("hands"),
		headerStyle.Render("net"),
		headerStyle.Render("bb per hand"),
		headerStyle.Render("win"),
		headerStyle.Render("fallback"))
	for i, st := range standings {
		fmt.Fprintf(w, "%d\t%s\t%.0f\t%d\t%s\t%.2f\t%.1f%%\t%.1f%%\n",
			i+1,
			nameStyle.Render(st.Name),
			st.Elo,
			st.Hands,
			chipDelta(st.NetChips),
			st.BBPerHand,
			st.WinRate*100,
			st.FallbackRate*100)
	}
	w.Flush()
}
