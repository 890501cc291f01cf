package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// LeaderboardCmd prints the all-time agent ranking from the database.
type LeaderboardCmd struct {
	Config string `help:"Path to HCL config file" default:"chipbench.hcl"`
	Limit  int    `default:"20" help:"Maximum number of agents to show"`
	JSON   bool   `help:"Emit JSON instead of a table"`
}

func (c *LeaderboardCmd) Run() error {
	cfg, logger, closeLog, err := loadConfigAndLogger(c.Config, false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Leaderboard(ctx, c.Limit)
	if err != nil {
		return err
	}
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	if len(rows) == 0 {
		fmt.Println("no results yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("#"),
		headerStyle.Render("agent"),
		headerStyle.Render("elo"),
		headerStyle.Render("hands"),
		headerStyle.Render("net"),
		headerStyle.Render("chips per hand"),
		headerStyle.Render("fallback"))
	for i, r := range rows {
		detail := r.Kind
		if r.Model != "" {
			detail = r.Model
		}
		label := nameStyle.Render(r.Name) + dimStyle.Render(" "+detail)
		fmt.Fprintf(w, "%d\t%s\t%.0f\t%d\t%s\t%.2f\t%.1f%%\n",
			i+1,
			label,
			r.Elo,
			r.Hands,
			chipDelta(int(r.NetChips)),
			r.ChipsPerHand(),
			r.FallbackRate()*100)
	}
	w.Flush()
	return nil
}
