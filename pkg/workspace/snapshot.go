package workspace

import (
	"fmt"
	"strings"

	"github.com/memovlab/memov/pkg/provenance"
)

// Snap records a fresh snapshot of every tracked file, capturing edits made
// since the last commit. Untracked files are reported but never swept in
// silently; with nothing tracked yet the call is a warning no-op.
func (w *Workspace) Snap(prompt, response *string, src provenance.Source) (OpStatus, error) {
	lk, err := w.acquireLock()
	if err != nil {
		return OpUnknownError, err
	}
	defer lk.release()

	head, err := w.Head()
	if err != nil {
		return StatusOf(err), err
	}
	if head == "" {
		w.Log.Warn("no tracked files to snapshot, track files first")
		return OpSuccess, nil
	}

	files, err := w.Store.ListTree(head)
	if err != nil {
		return OpUnknownError, fmt.Errorf("snap: %w", err)
	}
	if len(files) == 0 {
		w.Log.Warn("no tracked files to snapshot, track files first")
		return OpSuccess, nil
	}

	tracked := make(map[string]bool, len(files))
	for _, f := range files {
		tracked[f.Rel] = true
	}
	all, err := w.scanAll()
	if err != nil {
		return OpUnknownError, fmt.Errorf("snap: %w", err)
	}
	var untracked []string
	for _, f := range all {
		if !tracked[f.Rel] {
			untracked = append(untracked, f.Rel)
		}
	}
	if len(untracked) > 0 {
		w.Log.WithField("files", strings.Join(untracked, ", ")).
			Warn("untracked files present, they will not be included in the snapshot")
	}

	blobs := make(map[string]string, len(files))
	for _, f := range files {
		hash, err := w.Store.WriteBlob(f.Abs)
		if err != nil {
			return OpCommitFailed, fmt.Errorf("%w: %v", ErrCommitFailed, err)
		}
		blobs[f.Rel] = hash
	}

	hash, err := w.commit(blobs, provenance.SnapshotMessage(prompt, response, src))
	if err != nil {
		return StatusOf(err), err
	}

	w.Log.WithField("commit", hash).Info("snapshot created")
	return OpSuccess, nil
}
