package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "shapefinder %s\n", a.build.Version)
			_, _ = fmt.Fprintf(out, "  Build time: %s\n", a.build.BuildTime)
			_, err := fmt.Fprintf(out, "  Git commit: %s\n", a.build.GitCommit)
			return err
		},
	}
}
