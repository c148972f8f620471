package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/memovlab/memov/pkg/gitstore"
	"github.com/memovlab/memov/pkg/provenance"
	"github.com/memovlab/memov/pkg/workspace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs: the resolved project location
// and the configured logger.
type app struct {
	loc     string
	verbose bool
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	root := &cobra.Command{
		Use:           "mem",
		Short:         "AI-assisted version control on top of Git",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.loc, "loc", ".", "project directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newTrackCmd(a))
	root.AddCommand(newSnapCmd(a))
	root.AddCommand(newRenameCmd(a))
	root.AddCommand(newRemoveCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newJumpCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newAmendCmd(a))
	root.AddCommand(newTraceCmd(a))
	root.AddCommand(newGCCmd(a))

	return root
}

// setup resolves --loc and points the logger at stderr, plus the rotating
// workspace operation log once one exists.
func (a *app) setup() error {
	loc, err := filepath.Abs(a.loc)
	if err != nil {
		return fmt.Errorf("resolve --loc: %w", err)
	}
	a.loc = loc

	a.log.SetFormatter(&logrus.TextFormatter{})
	if a.verbose {
		a.log.SetLevel(logrus.DebugLevel)
	}

	out := io.Writer(os.Stderr)
	if workspace.Initialized(a.loc) {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   workspace.LogPath(a.loc),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		})
	}
	a.log.SetOutput(out)
	return nil
}

// store returns the object-store handle for the configured location.
func (a *app) store() *gitstore.Store {
	return gitstore.New(workspace.StoreDir(a.loc), a.loc)
}

// open opens the workspace at --loc and wires in the interactive confirm.
func (a *app) open() (*workspace.Workspace, error) {
	w, err := workspace.Open(a.loc, a.store(), a.log)
	if err != nil {
		return nil, err
	}
	if !a.verbose {
		if level, err := logrus.ParseLevel(w.Config().LogLevel); err == nil {
			a.log.SetLevel(level)
		}
	}
	w.Confirm = askConfirm
	return w, nil
}

// askConfirm puts a yes/no question to the terminal.
func askConfirm(prompt string) (bool, error) {
	var ok bool
	if err := huh.NewConfirm().Title(prompt).Value(&ok).Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// source maps the --by-user flag onto the provenance source.
func source(byUser bool) provenance.Source {
	if byUser {
		return provenance.SourceUser
	}
	return provenance.SourceAgent
}

// optFlag returns a pointer to a string flag's value only when the user set
// it, preserving the distinction between absent and empty.
func optFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mem 0.1.0-dev")
		},
	}
}
