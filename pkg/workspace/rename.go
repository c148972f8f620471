package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/memovlab/memov/pkg/provenance"
)

// Rename moves a tracked file and records the move. Exactly one of the two
// paths must exist: when only the old path does, the file is moved on
// disk; when only the new path does, the caller already moved it and the
// operation just records that. Any precondition miss warns and commits
// nothing.
func (w *Workspace) Rename(oldPath, newPath string, prompt, response *string, src provenance.Source) (OpStatus, error) {
	lk, err := w.acquireLock()
	if err != nil {
		return OpUnknownError, err
	}
	defer lk.release()

	oldAbs := w.absPath(oldPath)
	newAbs := w.absPath(newPath)
	oldExists := fileExists(oldAbs)
	newExists := fileExists(newAbs)

	switch {
	case oldExists && newExists:
		w.Log.WithField("path", newPath).Warn("rename target already exists")
		return OpSuccess, nil
	case !oldExists && !newExists:
		w.Log.WithFields(logrus.Fields{"old": oldPath, "new": newPath}).
			Warn("neither the old nor the new path exists")
		return OpSuccess, nil
	}

	oldRel, err := w.relPath(oldAbs)
	if err != nil {
		w.Log.WithField("path", oldPath).Warn("rename source is outside the workspace")
		return OpSuccess, nil
	}
	newRel, err := w.relPath(newAbs)
	if err != nil {
		return OpUnknownError, fmt.Errorf("rename: %w", err)
	}

	tracked, err := w.trackedSet()
	if err != nil {
		return OpUnknownError, fmt.Errorf("rename: %w", err)
	}
	if !tracked[oldRel] {
		w.Log.WithField("path", oldRel).Warn("file is not tracked, cannot rename")
		return OpSuccess, nil
	}

	alreadyMoved := !oldExists
	if oldExists {
		if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
			return OpUnknownError, fmt.Errorf("rename: %w", err)
		}
		if err := os.Rename(oldAbs, newAbs); err != nil {
			return OpUnknownError, fmt.Errorf("rename: %w", err)
		}
	}

	msg := provenance.RenameMessage(oldRel, newRel, alreadyMoved, prompt, response, src)
	hash, err := w.commitWorkspace(msg)
	if err != nil {
		return StatusOf(err), err
	}

	w.Log.WithFields(logrus.Fields{"commit": hash, "old": oldRel, "new": newRel}).Info("renamed file")
	return OpSuccess, nil
}

// trackedSet returns the relative paths in HEAD's tree, empty when no
// commit exists yet.
func (w *Workspace) trackedSet() (map[string]bool, error) {
	head, err := w.Head()
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]bool)
	if head == "" {
		return tracked, nil
	}
	tree, err := w.Store.ListTreeWithBlobs(head)
	if err != nil {
		return nil, err
	}
	for rel := range tree {
		tracked[rel] = true
	}
	return tracked, nil
}
