package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/svctrack/internal/harness"
)

// NewTraceCommand creates the trace command: run a scenario and print its
// result as JSON, ignoring assertion outcomes. Useful for diffing hook traces
// while writing a scenario.
func NewTraceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Run a tracker scenario and print its hook trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.Load(args[0])
			if err != nil {
				return err
			}

			// Assertion failures are deliberately not fatal here; trace is
			// for inspecting behavior, replay is for enforcing it.
			result, runErr := harness.Run(scenario)
			if result == nil {
				return runErr
			}

			data, err := harness.MarshalResult(result)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(data); err != nil {
				return err
			}
			if runErr != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "note: assertions failed: %v\n", runErr)
			}
			return nil
		},
	}
}
