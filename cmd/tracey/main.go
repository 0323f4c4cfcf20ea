// Command tracey demonstrates and serves the embedded memory-leak detector.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skyformat99/tracey/pkg/tracey"
)

// Exit codes: 0 all clean, 2 leaks detected, 3 tool error.
const (
	exitClean = 0
	exitLeaks = 2
	exitError = 3
)

var verbose bool

func main() {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	root := &cobra.Command{
		Use:           "tracey",
		Short:         "Process-embedded memory-leak detector",
		Long:          "tracey records every watched allocation with its call stack and attributes unfreed bytes to the code paths responsible.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newDemoCmd(log))
	root.AddCommand(newServeCmd(log))
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(exitError)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s (%s)\n", tracey.Version(), tracey.URL())
		},
	}
}
