package main

import (
	"github.com/spf13/cobra"
)

func newAmendCmd(a *app) *cobra.Command {
	var prompt, response string
	var byUser bool

	cmd := &cobra.Command{
		Use:   "amend <commit>",
		Short: "Attach or correct a commit's prompt/response note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			return w.Amend(args[0], optFlag(cmd, "prompt", prompt), optFlag(cmd, "response", response), source(byUser))
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "prompt to record")
	cmd.Flags().StringVarP(&response, "response", "r", "", "response to record")
	cmd.Flags().BoolVarP(&byUser, "by-user", "u", false, "mark the change as made by the user")
	return cmd
}
