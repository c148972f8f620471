package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	dirtyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cleanStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Compare the workspace against the HEAD snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			report, err := w.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current HEAD commit: %s\n", report.Head)
			branch := "None"
			if report.Branch != "" {
				branch = report.Branch
			}
			fmt.Fprintf(out, "Current branch: %s\n", branch)

			type line struct {
				rel   string
				label string
				clean bool
			}
			var lines []line
			for _, rel := range report.Untracked {
				lines = append(lines, line{rel, "Untracked:", false})
			}
			for _, rel := range report.Deleted {
				lines = append(lines, line{rel, "Deleted:", false})
			}
			for _, rel := range report.Modified {
				lines = append(lines, line{rel, "Modified:", false})
			}
			for _, rel := range report.Clean {
				lines = append(lines, line{rel, "Clean:", true})
			}
			sort.Slice(lines, func(i, j int) bool { return lines[i].rel < lines[j].rel })

			for _, l := range lines {
				text := fmt.Sprintf("%-10s %s", l.label, l.rel)
				if l.clean {
					fmt.Fprintln(out, cleanStyle.Render(text))
				} else {
					fmt.Fprintln(out, dirtyStyle.Render(text))
				}
			}
			return nil
		},
	}
}
