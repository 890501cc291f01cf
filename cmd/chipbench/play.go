package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/cmd/chipbench/shared"
	"github.com/chipbench/chipbench/internal/config"
	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/phh"
	"github.com/chipbench/chipbench/internal/randutil"
	"github.com/chipbench/chipbench/internal/session"
)

// PlayCmd plays a handful of hands and prints the full history of each.
type PlayCmd struct {
	Config   string `help:"Path to HCL config file" default:"chipbench.hcl"`
	A        string `arg:"" optional:"" default:"caller" help:"First agent (config name or builtin kind)"`
	B        string `arg:"" optional:"" default:"random" help:"Second agent (config name or builtin kind)"`
	Hands    int    `default:"1" help:"Number of hands to play"`
	Seed     *int64 `help:"Deterministic RNG seed (optional)"`
	HandsDir string `help:"Also write each hand history into this directory"`
	PHHDir   string `name:"phh-dir" help:"Also write each hand in PHH format into this directory"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *PlayCmd) Run() error {
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
	scfg := session.Config{
		Names:      [2]string{acA.Name, acB.Name},
		SmallBlind: cfg.Match.SmallBlind,
		BigBlind:   cfg.Match.BigBlind,
		Stacks:     [2]int{cfg.Match.Stack, cfg.Match.Stack},
		Hands:      c.Hands,
		Seed:       seed,
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithSink(session.SinkFunc(func(ctx context.Context, e session.HandEvent) error {
			fmt.Println(e.Result.HistoryText())
			return nil
		})),
	}
	if c.HandsDir != "" {
		hw := game.NewFileHistoryWriter(c.HandsDir)
		opts = append(opts, session.WithSink(session.SinkFunc(func(ctx context.Context, e session.HandEvent) error {
			return hw.WriteHistory(e.Result.HandID, e.Result.HistoryText())
		})))
	}
	if c.PHHDir != "" {
		if err := os.MkdirAll(c.PHHDir, 0o755); err != nil {
			return fmt.Errorf("creating PHH directory: %w", err)
		}
		opts = append(opts, session.WithSink(session.SinkFunc(func(ctx context.Context, e session.HandEvent) error {
			raw, err := phh.EncodeToBytes(phh.FromResult(e.Result, e.SessionID, time.Now()))
			if err != nil {
				return err
			}
			name := filepath.Join(c.PHHDir, "hand_"+e.Result.HandID+".phh")
			return os.WriteFile(name, raw, 0o644)
		})))
	}

	agents := [2]game.Agent{
		entA.NewAgent(randutil.DeriveSeed(seed, 0)),
		entB.NewAgent(randutil.DeriveSeed(seed, 1)),
	}
	sess, err := session.New(scfg, agents, opts...)
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)
	out, err := sess.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if out != nil && out.HandsPlayed > 0 {
		fmt.Printf("%s %+d, %s %+d over %d hands\n",
			scfg.Names[0], out.Net[0], scfg.Names[1], out.Net[1], out.HandsPlayed)
	}
	return nil
}

// loadConfigAndLogger is the shared command preamble: config file, then
// the logger it describes, with --debug forcing the level down.
func loadConfigAndLogger(path string, debug bool) (*config.Config, zerolog.Logger, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("config %s: %w", path, err)
	}
	logger, closeLog, err := shared.LoggerFromConfig(cfg.Log)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	if debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return cfg, logger, closeLog, nil
}
