package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := buildVersion(version, commit, date, builtBy, treeState)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return err
		},
	}
}
