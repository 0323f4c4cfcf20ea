package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/skyformat99/tracey/pkg/registry"
	"github.com/skyformat99/tracey/pkg/report"
	"github.com/skyformat99/tracey/pkg/tracey"
)

var (
	statsTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statsHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	statsDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	scoreGood   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	scoreBad    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// renderStats prints a styled counter summary plus the leak score.
func renderStats(w io.Writer, stats registry.Stats, tracer *tracey.Tracer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, statsTitle.Render("Allocation Tracker Summary"))
	fmt.Fprintln(w, statsDim.Render(strings.Repeat("═", 48)))
	fmt.Fprintf(w, "  %s %s\n",
		statsHeader.Render("COUNTER        "),
		statsHeader.Render("VALUE          "))
	fmt.Fprintln(w, "  "+statsDim.Render(strings.Repeat("─", 48)))
	fmt.Fprintf(w, "  %-16s %d\n", "live count", stats.LiveCount)
	fmt.Fprintf(w, "  %-16s %d\n", "live bytes", stats.LiveBytes)
	fmt.Fprintf(w, "  %-16s %d\n", "peak bytes", stats.PeakBytes)
	fmt.Fprintln(w, "  "+statsDim.Render(strings.Repeat("─", 48)))

	score := report.Score(stats.LiveCount, tracer.Registry().Total())
	style := scoreGood
	if stats.LiveCount > 0 {
		style = scoreBad
	}
	fmt.Fprintf(w, "  %-16s %s\n", "score", style.Render(score))
}
