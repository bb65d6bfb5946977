package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/svctrack/internal/harness"
)

// NewReplayCommand creates the replay command: run a scenario file and
// evaluate its assertions.
func NewReplayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Run a tracker scenario and check its assertions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.Load(args[0])
			if err != nil {
				return err
			}

			result, err := harness.Run(scenario)
			if result != nil {
				if werr := writeResult(cmd.OutOrStdout(), result, opts.Format); werr != nil {
					return werr
				}
			}
			if err != nil {
				return fmt.Errorf("scenario %q failed: %w", scenario.Name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scenario %q passed (%d hook calls)\n",
				scenario.Name, len(result.Trace))
			return nil
		},
	}
}
