package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version     kong.VersionFlag `short:"v" help:"Show version"`
	Play        PlayCmd          `cmd:"" help:"Play hands between two agents and print their histories"`
	Session     SessionCmd       `cmd:"" help:"Run a benchmark session between two agents"`
	Tournament  TournamentCmd    `cmd:"" help:"Run a round-robin tournament over the configured agents"`
	Leaderboard LeaderboardCmd   `cmd:"" help:"Show the stored leaderboard"`
	Serve       ServeCmd         `cmd:"" help:"Serve the reporting API"`
	Migrate     MigrateCmd       `cmd:"" help:"Apply the database schema"`
}

func main() {
	// API keys and DATABASE_URL may live in a local .env file.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chipbench"),
		kong.Description("Heads-up no-limit hold'em benchmark for decision-making agents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
