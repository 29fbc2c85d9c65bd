package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set by build flags
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the version information for chainwait.`,
		// Printing the version must not depend on a valid configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chainwait version: %s\n", Version)
			fmt.Fprintf(out, "git commit: %s\n", GitCommit)
			fmt.Fprintln(out, "compatible with: Tendermint JSON-RPC nodes")
		},
	}

	return cmd
}
