package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skyformat99/tracey/pkg/tracey"
	"github.com/skyformat99/tracey/pkg/web"
)

func newServeCmd(log *logrus.Logger) *cobra.Command {
	var (
		addr  string
		churn bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over a live tracer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := tracey.DefaultConfig()
			cfg.ReportOnExit = false
			cfg.DashboardAddr = addr
			tracer := tracey.NewTracer(cfg)

			stop, err := web.Start(tracer, addr)
			if err != nil {
				return err
			}
			defer stop()
			cmd.Printf("dashboard listening on %s\n", addr)

			done := make(chan struct{})
			if churn {
				go churnWorkload(tracer, done)
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			close(done)
			log.Debug("Shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":16180", "dashboard listen address")
	cmd.Flags().BoolVar(&churn, "churn", true, "run a background workload so the dashboard has something to show")
	return cmd
}

// churnWorkload keeps allocating and releasing, leaking a little, so the
// sparkline and counters move.
func churnWorkload(t *tracey.Tracer, done <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var held [][]byte
	i := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			held = append(held, allocSmall(t))
			if len(held) > 32 {
				t.Release(held[0])
				held = held[1:]
			}
			i++
			if i%40 == 0 {
				// deliberately dropped without release
				_ = allocLarge(t)
			}
		}
	}
}
