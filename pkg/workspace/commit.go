package workspace

import (
	"fmt"
	"sort"

	"github.com/memovlab/memov/pkg/gitstore"
)

// commit writes a complete-tree commit on top of the current HEAD and runs
// the branch state machine. Returns the new commit hash.
func (w *Workspace) commit(blobs map[string]string, message string) (string, error) {
	tree, err := w.Store.BuildTree(treeEntries(blobs))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	parent, err := w.Head()
	if err != nil {
		return "", err
	}
	hash, err := w.Store.CommitTree(tree, message, parent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	if err := w.advance(hash); err != nil {
		return "", err
	}
	return hash, nil
}

// commitWorkspace snapshots every non-ignored file currently on disk.
// Rename and remove use it: both recompute the full tracked set from the
// post-operation workspace state.
func (w *Workspace) commitWorkspace(message string) (string, error) {
	files, err := w.scanAll()
	if err != nil {
		return "", err
	}

	blobs := make(map[string]string, len(files))
	for _, f := range files {
		hash, err := w.Store.WriteBlob(f.Abs)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCommitFailed, err)
		}
		blobs[f.Rel] = hash
	}
	return w.commit(blobs, message)
}

// treeEntries converts a rel→blob map into sorted mktree input entries.
func treeEntries(blobs map[string]string) []gitstore.TreeEntry {
	rels := make([]string, 0, len(blobs))
	for rel := range blobs {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	entries := make([]gitstore.TreeEntry, 0, len(rels))
	for _, rel := range rels {
		entries = append(entries, gitstore.TreeEntry{
			Mode: gitstore.ModeFile,
			Hash: blobs[rel],
			Path: rel,
		})
	}
	return entries
}
