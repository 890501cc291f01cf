package main

import (
	"context"
)

// MigrateCmd applies the database schema.
type MigrateCmd struct {
	Config string `help:"Path to HCL config file" default:"chipbench.hcl"`
	Debug  bool   `help:"Enable debug logging"`
}

func (c *MigrateCmd) Run() error {
	cfg, logger, closeLog, err := loadConfigAndLogger(c.Config, c.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	db, err := dialStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	logger.Info().Msg("schema applied")
	return nil
}
