package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <commit>",
		Short: "Show a snapshot's commit details and tracked files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			raw, files, err := w.Show(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, raw)
			fmt.Fprintf(out, "\nTracked files in snapshot %s:\n", args[0])
			for _, rel := range files {
				fmt.Fprintf(out, "  %s\n", rel)
			}
			return nil
		},
	}
}
