package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/memovlab/memov/pkg/trace"
	"github.com/memovlab/memov/pkg/workspace"
)

func newTraceCmd(a *app) *cobra.Command {
	var out string
	var compress bool

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Export the history as structured JSON trace records",
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
				return fmt.Errorf("trace: %w", workspace.ErrNoHistory)
			}
			head, err := w.Head()
			if err != nil {
				return err
			}

			r := &trace.Reader{Store: a.store(), Branches: branches, Head: head}

			path := out
			if !filepath.IsAbs(path) {
				path = filepath.Join(a.loc, path)
			}
			if compress {
				path += ".zst"
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("trace: %w", err)
			}

			sink := io.Writer(f)
			var enc *zstd.Encoder
			if compress {
				if enc, err = zstd.NewWriter(f); err != nil {
					f.Close()
					return fmt.Errorf("trace: %w", err)
				}
				sink = enc
			}

			if err := r.ExportJSON(sink); err != nil {
				f.Close()
				return err
			}
			if enc != nil {
				if err := enc.Close(); err != nil {
					f.Close()
					return fmt.Errorf("trace: %w", err)
				}
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("trace: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported trace to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "trace.json", "output file")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the output")
	return cmd
}
