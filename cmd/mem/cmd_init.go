package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memovlab/memov/pkg/workspace"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a memov workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := workspace.Init(a.loc, a.store(), a.log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized memov workspace in %s\n", a.loc)
			return nil
		},
	}
}
