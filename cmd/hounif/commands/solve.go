package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanunify/internal/parallel"
)

func newSolveCommand(gopts *globalOptions) *cobra.Command {
	var (
		jsonOutput bool
		jobs       int
		solutions  int
	)

	cmd := &cobra.Command{
		Use:   "solve FILE...",
		Short: "Enumerate unifiers of the problems in FILE",
		Long: `Solve loads each problem file, searches for unifiers within the file's
step budget and prints the assignments of the declared metavariables.

Several files are solved concurrently; output keeps the order of the
arguments.`,
		Example: `  # Print up to the number of solutions the file asks for
  hounif solve problems/synthesis.yaml

  # Three solutions each, two files at a time, as JSON
  hounif solve --solutions 3 --jobs 2 --json a.yaml b.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(gopts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			pool := parallel.NewWorkerPool(jobs)
			defer pool.Shutdown()

			sess.logger.Debug().Int("files", len(args)).Int("jobs", pool.Workers()).Msg("solving")
			reports, err := parallel.Map(cmd.Context(), pool, len(args), func(ctx context.Context, i int) report {
				return sess.solveFile(ctx, args[i], solutions)
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(reports); err != nil {
					return err
				}
			} else {
				for _, r := range reports {
					printReport(cmd.OutOrStdout(), r)
				}
			}
			if err := sess.close(cmd.Context(), cmd.OutOrStdout()); err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if r.err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d problem files failed", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of files solved at once (default one per CPU)")
	cmd.Flags().IntVarP(&solutions, "solutions", "n", 0, "solutions per file (default from the file)")

	return cmd
}

func printReport(w io.Writer, r report) {
	if r.err != nil {
		fmt.Fprintf(w, "%s: error: %v\n", r.File, r.err)
		return
	}
	status := "budget spent"
	if r.Exhausted {
		status = "search exhausted"
	}
	fmt.Fprintf(w, "%s: %d solution(s), %s after %d steps\n", r.File, len(r.Solutions), status, r.Stats.Takes)
	for i, s := range r.Solutions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s.text)
	}
}
