package workspace

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Jump restores the workspace to the snapshot at target and detaches HEAD.
// target may be a short hash. Every on-disk file that was ever tracked by
// any branch but is absent from the target tree is deleted first, then the
// target snapshot is extracted over the workspace; files outside that
// historical union are never touched.
func (w *Workspace) Jump(target string) error {
	lk, err := w.acquireLock()
	if err != nil {
		return err
	}
	defer lk.release()

	reg, err := w.loadRegistry()
	if err != nil {
		return err
	}
	if reg == nil {
		return fmt.Errorf("jump: %w", ErrNoHistory)
	}

	hash, err := w.Store.ResolveRef(target)
	if err != nil {
		return fmt.Errorf("jump: %w", err)
	}
	if hash == "" {
		return fmt.Errorf("jump: unknown commit %q", target)
	}

	targetTree, err := w.Store.ListTreeWithBlobs(hash)
	if err != nil {
		return fmt.Errorf("jump: %w", err)
	}
	union, err := w.historicalUnion(reg)
	if err != nil {
		return fmt.Errorf("jump: %w", err)
	}

	// Prune stale tracked files left over from a different branch or era.
	for _, rel := range union {
		if _, ok := targetTree[rel]; ok {
			continue
		}
		abs := filepath.Join(w.Root, filepath.FromSlash(rel))
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("jump: remove %s: %w", rel, err)
		}
		w.removeEmptyParents(filepath.Dir(abs))
	}

	data, err := w.Store.Archive(hash)
	if err != nil {
		return fmt.Errorf("jump: %w", err)
	}
	if err := extractTar(w.Root, data); err != nil {
		return fmt.Errorf("jump: %w", err)
	}

	if err := w.detach(hash); err != nil {
		return fmt.Errorf("jump: %w", err)
	}

	w.Log.WithField("commit", hash).Info("jumped to snapshot, head detached")
	return nil
}

// historicalUnion collects every path that has ever appeared in a commit
// reachable from any branch tip, sorted.
func (w *Workspace) historicalUnion(reg *Registry) ([]string, error) {
	names := make([]string, 0, len(reg.Branches))
	for name := range reg.Branches {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]bool)
	paths := make(map[string]bool)
	for _, name := range names {
		history, err := w.Store.RevList(reg.Branches[name])
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", name, err)
		}
		for _, commit := range history {
			if seen[commit] {
				continue
			}
			seen[commit] = true
			tree, err := w.Store.ListTreeWithBlobs(commit)
			if err != nil {
				return nil, err
			}
			for rel := range tree {
				paths[rel] = true
			}
		}
	}

	union := make([]string, 0, len(paths))
	for rel := range paths {
		union = append(union, rel)
	}
	sort.Strings(union)
	return union, nil
}

// removeEmptyParents walks upward deleting now-empty directories, stopping
// at the workspace root.
func (w *Workspace) removeEmptyParents(dir string) {
	for {
		if dir == w.Root || !strings.HasPrefix(dir, w.Root) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

// extractTar materializes an archive over root, overwriting in place.
func extractTar(root string, data []byte) error {
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		path := filepath.Join(root, filepath.FromSlash(hdr.Name))
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			return fmt.Errorf("archive entry %q escapes the workspace", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		}
	}
}
