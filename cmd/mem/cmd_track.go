package main

import (
	"github.com/spf13/cobra"
)

func newTrackCmd(a *app) *cobra.Command {
	var prompt, response string
	var byUser bool

	cmd := &cobra.Command{
		Use:   "track [paths...]",
		Short: "Start versioning files",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			_, err = w.Track(args, optFlag(cmd, "prompt", prompt), optFlag(cmd, "response", response), source(byUser))
			return err
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "prompt that produced this change")
	cmd.Flags().StringVarP(&response, "response", "r", "", "assistant response for this change")
	cmd.Flags().BoolVarP(&byUser, "by-user", "u", false, "mark the change as made by the user")
	return cmd
}
