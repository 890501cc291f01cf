package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/cmd/chipbench/shared"
	"github.com/chipbench/chipbench/internal/config"
	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/randutil"
	"github.com/chipbench/chipbench/internal/session"
	"github.com/chipbench/chipbench/internal/store"
)

// SessionCmd runs a full head-to-head session between two agents.
type SessionCmd struct {
	Config    string `help:"Path to HCL config file" default:"chipbench.hcl"`
	A         string `arg:"" help:"First agent (config name or builtin kind)"`
	B         string `arg:"" help:"Second agent (config name or builtin kind)"`
	Hands     int    `default:"0" help:"Number of hands to play (default from config)"`
	Duplicate bool   `help:"Play duplicate pairs with mirrored hole cards"`
	Seed      *int64 `help:"Deterministic RNG seed (optional)"`
	Persist   bool   `help:"Record the session in the configured database"`
	Serve     string `help:"Serve the live feed and API on this address while running (e.g. :8080)"`
	Debug     bool   `help:"Enable debug logging"`
}

func (c *SessionCmd) Run() error {
	cfg, logger, closeLog, err := loadConfigAndLogger(c.Config, c.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	acA, err := resolveAgentConfig(cfg, c.A)
	if err != nil {
		return err
	}
	acB, err := resolveAgentConfig(cfg, c.B)
	if err != nil {
		return err
	}
	entA, err := newEntrant(acA, logger)
	if err != nil {
		return err
	}
	entB, err := newEntrant(acB, logger)
	if err != nil {
		return err
	}

	seed := resolveSeed(c.Seed, cfg.Match.Seed, logger)
	hands := c.Hands
	if hands == 0 {
		hands = cfg.Match.Hands
	}
	scfg := session.Config{
		Names:      [2]string{acA.Name, acB.Name},
		SmallBlind: cfg.Match.SmallBlind,
		BigBlind:   cfg.Match.BigBlind,
		Stacks:     [2]int{cfg.Match.Stack, cfg.Match.Stack},
		Hands:      hands,
		Seed:       seed,
		Duplicate:  cfg.Match.Duplicate || c.Duplicate,
	}

	ctx := shared.SetupSignalHandler(logger)
	opts := []session.Option{session.WithLogger(logger)}

	var db *store.DB
	if c.Persist {
		db, err = openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, session.WithSink(db))
	}
	if c.Serve != "" {
		hub, stop := startLiveServer(c.Serve, db, logger)
		defer stop()
		opts = append(opts, session.WithSink(hub))
	}

	agents := [2]game.Agent{
		entA.NewAgent(randutil.DeriveSeed(seed, 0)),
		entB.NewAgent(randutil.DeriveSeed(seed, 1)),
	}
	sess, err := session.New(scfg, agents, opts...)
	if err != nil {
		return err
	}

	if db != nil {
		ids, err := registerAgents(ctx, db, []config.AgentConfig{acA, acB})
		if err != nil {
			return err
		}
		created := scfg
		created.ID = sess.ID()
		seats := [2]store.SessionSeat{
			{AgentID: ids[acA.Name], StartStack: cfg.Match.Stack},
			{AgentID: ids[acB.Name], StartStack: cfg.Match.Stack},
		}
		if err := db.CreateSession(ctx, created, seats); err != nil {
			return err
		}
	}

	logger.Info().
		Str("session", sess.ID()).
		Str("a", acA.Name).
		Str("b", acB.Name).
		Int("hands", hands).
		Bool("duplicate", scfg.Duplicate).
		Msg("starting session")

	out, err := sess.Run(ctx)
	cancelled := errors.Is(err, context.Canceled)
	if err != nil && !cancelled {
		return err
	}
	if out == nil {
		return nil
	}
	if db != nil {
		// The signal context may already be dead; give the final write
		// its own deadline so an interrupted session still lands.
		finCtx, finCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer finCancel()
		if err := db.FinishSession(finCtx, out); err != nil {
			return err
		}
	}
	printSessionSummary(out, scfg.Names)
	return nil
}

// resolveSeed picks the RNG seed: the flag wins, then the config file,
// then the wall clock.
func resolveSeed(flag *int64, fromConfig int64, logger zerolog.Logger) int64 {
	if flag != nil {
		logger.Info().Int64("seed", *flag).Msg("Using deterministic seed")
		return *flag
	}
	if fromConfig != 0 {
		logger.Info().Int64("seed", fromConfig).Msg("Using configured seed")
		return fromConfig
	}
	seed := time.Now().UnixNano()
	logger.Info().Int64("seed", seed).Msg("Using random seed")
	return seed
}

func printSessionSummary(out *session.Outcome, names [2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("agent"),
		headerStyle.Render("hands"),
		headerStyle.Render("net"),
		headerStyle.Render("bb per hand"),
		headerStyle.Render("stderr"),
		headerStyle.Render("win"),
		headerStyle.Render("fallback"))
	for i, name := range names {
		st := out.Stats[i]
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%.2f\t%.1f%%\t%.1f%%\n",
			nameStyle.Render(name),
			st.Hands,
			chipDelta(out.Net[i]),
			st.Mean(),
			st.StdError(),
			st.WinRate()*100,
			st.FallbackRate()*100)
	}
	w.Flush()

	if len(out.Pairs) > 0 {
		won, flat := 0, 0
		for _, p := range out.Pairs {
			switch {
			case p.Net > 0:
				won++
			case p.Net == 0:
				flat++
			}
		}
		fmt.Printf("%d mirrored pairs: %s won %d, split %d, lost %d\n",
			len(out.Pairs), names[0], won, flat, len(out.Pairs)-won-flat)
	}
}

// chipDelta formats a chip total with a sign, green for wins and red
// for losses.
func chipDelta(n int) string {
	s := fmt.Sprintf("%+d", n)
	switch {
	case n > 0:
		return winStyle.Render(s)
	case n < 0:
		return lossStyle.Render(s)
	default:
		return s
	}
}
