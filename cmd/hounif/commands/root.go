// Package commands implements the hounif command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanunify/pkg/unif"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel string
	trace    bool
	metrics  bool
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "hounif",
		Short: "Higher-order pre-unification for dependent type theory",
		Long: `hounif enumerates unifiers of equations between terms of a dependently
typed lambda calculus. A problem file declares constants, structures and
metavariables and lists one or more alternatives of equations to solve.

Search is breadth-first and fair: every step does a bounded amount of work,
so a budget of steps always terminates even when the set of unifiers is
infinite.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", unif.Version, unif.GitCommit, unif.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "write OpenTelemetry spans to stderr")
	rootCmd.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "print search metrics in Prometheus text format when done")

	rootCmd.AddCommand(newSolveCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
