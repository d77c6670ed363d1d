package app

import (
	"fmt"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
)

// GetVersion returns the version string.
func GetVersion() string {
	return version.Get().GitVersion
}

// NewVersionCommand returns a "version" subcommand printing build details.
func NewVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, info.GitVersion)
				return err
			}
			_, err := fmt.Fprintf(out,
				"Version:    %s\nGit commit: %s\nBuild date: %s\nGo version: %s\nPlatform:   %s\n",
				info.GitVersion, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version string")
	return cmd
}
