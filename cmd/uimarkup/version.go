package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/uimarkup/pkg/version"
)

func versionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()

			if format != "" {
				return writeEncoded(cmd.OutOrStdout(), info, format)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "uimarkup %s (commit: %s, %s)\n", info.Version, info.GitHash, info.GoVersion)

			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (json, yaml, compact)")

	return cmd
}
