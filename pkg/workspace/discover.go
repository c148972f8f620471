package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/memovlab/memov/pkg/gitstore"
	"github.com/memovlab/memov/pkg/ignore"
)

// discover expands target files and directories into the workspace files
// eligible for tracking. A target that does not exist fails the whole
// batch: each commit's tree is all-or-nothing. tracked, when non-nil,
// excludes paths already under version control.
func (w *Workspace) discover(targets []string, tracked map[string]bool) ([]gitstore.TreeFile, error) {
	matcher, err := ignore.Load(w.Root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []gitstore.TreeFile

	add := func(abs string) error {
		rel, err := w.relPath(abs)
		if err != nil {
			return err
		}
		if matcher.Match(rel) || seen[rel] {
			return nil
		}
		if tracked != nil && tracked[rel] {
			return nil
		}
		seen[rel] = true
		files = append(files, gitstore.TreeFile{Rel: rel, Abs: abs})
		return nil
	}

	for _, target := range targets {
		abs := w.absPath(target)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", target, err)
		}

		if !info.IsDir() {
			if err := add(abs); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				rel, err := w.relPath(path)
				if err != nil {
					return err
				}
				// Prune ignored subtrees before descending.
				if rel != "." && matcher.Match(rel) {
					return fs.SkipDir
				}
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", target, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

// scanAll returns every non-ignored file under the workspace root, sorted
// by relative path.
func (w *Workspace) scanAll() ([]gitstore.TreeFile, error) {
	return w.discover([]string{w.Root}, nil)
}
