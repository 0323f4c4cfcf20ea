package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skyformat99/tracey/pkg/tracey"
)

func newDemoCmd(log *logrus.Logger) *cobra.Command {
	var (
		allocs     int
		leaks      int
		wild       bool
		reportFile string
		open       bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a synthetic workload and report the leaks it plants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := tracey.DefaultConfig()
			cfg.ReportWildPointers = wild
			cfg.ReportOnExit = false
			tracer := tracey.NewTracer(cfg)

			log.WithFields(logrus.Fields{
				"allocs": allocs,
				"leaks":  leaks,
			}).Debug("Running demo workload")

			runWorkload(tracer, allocs, leaks)
			if wild {
				// A free of an address nobody ever watched.
				tracer.Forget(0xDEADBEEF)
			}

			stats := tracer.Stats()
			renderStats(cmd.OutOrStdout(), stats, tracer)

			text := tracer.Report()
			if reportFile != "" {
				if err := os.WriteFile(reportFile, []byte(text), 0644); err != nil {
					return fmt.Errorf("cannot write report: %w", err)
				}
				cmd.Printf("report written to %s\n", reportFile)
			}
			if open {
				if err := tracer.View(text); err != nil {
					return fmt.Errorf("cannot open report: %w", err)
				}
			}

			if stats.LiveCount > 0 {
				os.Exit(exitLeaks)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&allocs, "allocs", 100, "number of allocations to perform")
	cmd.Flags().IntVar(&leaks, "leaks", 3, "number of allocations to leak")
	cmd.Flags().BoolVar(&wild, "wild", false, "also free a never-watched pointer")
	cmd.Flags().StringVar(&reportFile, "report-file", "", "write the report to this path")
	cmd.Flags().BoolVar(&open, "open", false, "open the report in the default viewer")
	return cmd
}

// runWorkload allocates through a few distinct call paths so the report trees
// have shape, then releases everything except the requested leaks.
func runWorkload(t *tracey.Tracer, allocs, leaks int) {
	if leaks > allocs {
		leaks = allocs
	}
	kept := make([][]byte, 0, allocs)
	for i := 0; i < allocs; i++ {
		switch i % 3 {
		case 0:
			kept = append(kept, allocSmall(t))
		case 1:
			kept = append(kept, allocLarge(t))
		default:
			kept = append(kept, allocNested(t))
		}
	}
	for _, buf := range kept[leaks:] {
		t.Release(buf)
	}
}

func allocSmall(t *tracey.Tracer) []byte {
	return t.Alloc(64)
}

func allocLarge(t *tracey.Tracer) []byte {
	return t.Alloc(4096)
}

func allocNested(t *tracey.Tracer) []byte {
	return allocSmall(t)
}
