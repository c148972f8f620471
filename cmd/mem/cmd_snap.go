package main

import (
	"github.com/spf13/cobra"
)

func newSnapCmd(a *app) *cobra.Command {
	var prompt, response string
	var byUser bool

	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Snapshot the current content of every tracked file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			_, err = w.Snap(optFlag(cmd, "prompt", prompt), optFlag(cmd, "response", response), source(byUser))
			return err
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "prompt that produced this change")
	cmd.Flags().StringVarP(&response, "response", "r", "", "assistant response for this change")
	cmd.Flags().BoolVarP(&byUser, "by-user", "u", false, "mark the change as made by the user")
	return cmd
}
