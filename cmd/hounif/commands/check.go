package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errNotUnifiable makes check exit with a failure status.
var errNotUnifiable = errors.New("no unifier found")

func newCheckCommand(gopts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Decide whether the problem in FILE has a unifier",
		Long: `Check searches for a single unifier within the file's budget. It prints the
unifier and exits with status 0 when one is found, and exits with a
non-zero status otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(gopts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			r := sess.solveFile(cmd.Context(), args[0], 1)
			if err := sess.close(cmd.Context(), cmd.OutOrStdout()); err != nil {
				return err
			}
			if r.err != nil {
				return r.err
			}
			out := cmd.OutOrStdout()
			if len(r.Solutions) == 0 {
				if r.Exhausted {
					fmt.Fprintln(out, "not unifiable")
				} else {
					fmt.Fprintf(out, "no unifier within %d steps\n", r.Stats.Takes)
				}
				return errNotUnifiable
			}
			fmt.Fprintf(out, "unifiable: %s\n", r.Solutions[0].text)
			return nil
		},
	}
}
