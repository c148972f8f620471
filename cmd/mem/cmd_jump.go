package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jump <commit>",
		Short: "Restore the workspace to a snapshot, detaching HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			if err := w.Jump(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Jumped to %s (HEAD detached, branches unchanged)\n", args[0])
			return nil
		},
	}
}
