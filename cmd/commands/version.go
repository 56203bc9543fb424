package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set through -ldflags "-X .../cmd/commands.version=..."
var (
	version   = "dev"
	gitCommit = "unknown"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "gsp-miner %s (commit %s, %s)\n", version, gitCommit, runtime.Version())
			return err
		},
	}
}
