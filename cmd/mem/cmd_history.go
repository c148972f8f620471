package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/memovlab/memov/pkg/trace"
	"github.com/memovlab/memov/pkg/workspace"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the snapshot history across every branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			branches, _, err := w.Branches()
			if err != nil {
				return err
			}
			if len(branches) == 0 {
				return fmt.Errorf("history: %w", workspace.ErrNoHistory)
			}
			head, err := w.Head()
			if err != nil {
				return err
			}

			r := &trace.Reader{Store: a.store(), Branches: branches, Head: head}
			entries, err := r.History()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Operation", "Branch", "Commit", "Prompt", "Response")
			for _, e := range entries {
				table.Append(
					string(e.Record.Op),
					branchCell(e),
					e.Hash[:7],
					promptCell(e.Record.Prompt),
					promptCell(e.Record.Response),
				)
			}
			table.Render()
			return nil
		},
	}
}

// branchCell renders the branch column: tips in brackets, a star on the
// HEAD row.
func branchCell(e trace.HistoryEntry) string {
	var cell string
	if len(e.Branches) > 0 {
		cell = "[" + strings.Join(e.Branches, ",") + "]"
	}
	if e.IsHead {
		cell = strings.TrimSpace("* " + cell)
	}
	return cell
}

// promptCell renders a prompt or response value for display.
func promptCell(v *string) string {
	if v == nil || *v == "" {
		return "None"
	}
	return shortMsg(*v)
}

// shortMsg truncates to 15 characters with an ellipsis.
func shortMsg(v string) string {
	if len(v) > 15 {
		return v[:15] + "..."
	}
	return v
}
