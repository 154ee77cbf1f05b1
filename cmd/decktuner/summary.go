package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ramonehamilton/DeckTuner/internal/sim"
	"github.com/ramonehamilton/DeckTuner/internal/storage"
)

// printSummary writes the plain-text run report: one block per condition
// with its per-turn curve, then mulligan stats.
func printSummary(w io.Writer, res *sim.Result) {
	fmt.Fprintf(w, "\nDeck: %s\n", res.DeckName)
	if res.Partial {
		fmt.Fprintf(w, "Trials: %d of %d requested (interrupted)\n", res.Trials, res.Requested)
	} else {
		fmt.Fprintf(w, "Trials: %d\n", res.Trials)
	}
	fmt.Fprintf(w, "Seed: %d\n", res.Seed)

	for _, cond := range res.Conditions {
		fmt.Fprintf(w, "\n%s (target turn %d)\n", cond.Name, cond.TargetTurn)
		for t, pct := range cond.PercentByTurn {
			marker := " "
			if t+1 == cond.TargetTurn {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s turn %2d: %6.2f%%\n", marker, t+1, pct)
		}
		if cond.MeanFirstTurn > 0 {
			fmt.Fprintf(w, "    mean first turn: %.2f\n", cond.MeanFirstTurn)
		}
		if cond.NeverPercent > 0 {
			fmt.Fprintf(w, "    never: %.2f%%\n", cond.NeverPercent)
		}
	}

	fmt.Fprintf(w, "\nMulligans: mean %.2f", res.MeanMulligans)
	if res.Trials > 0 {
		parts := make([]string, len(res.MulliganHistogram))
		for i, n := range res.MulliganHistogram {
			parts[i] = fmt.Sprintf("%d: %.1f%%", i, 100*float64(n)/float64(res.Trials))
		}
		fmt.Fprintf(w, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(w)

	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

// printRunList writes stored run summaries, newest first.
func printRunList(w io.Writer, runs []*storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No stored runs for this deck.")
		return
	}
	for _, run := range runs {
		status := ""
		if run.Partial {
			status = " (partial)"
		}
		fmt.Fprintf(w, "%6d  %s  %s  trials=%d%s  mulligans=%.2f\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04"),
			run.DeckName, run.Completed, status, run.MeanMulligans)
	}
}
