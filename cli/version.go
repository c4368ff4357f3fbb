package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unfurl-sh/unfurl/pkg/version"
)

// VersionCmd builds the version subcommand.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the unfurl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		},
	}
}
