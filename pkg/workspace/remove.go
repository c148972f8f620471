package workspace

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/memovlab/memov/pkg/provenance"
)

// Remove stops tracking a file. When the file still exists on disk it is
// deleted after the injected confirmation; declining aborts with no
// commit. A file already gone from disk is recorded as such without
// asking.
func (w *Workspace) Remove(path string, prompt, response *string, src provenance.Source) (OpStatus, error) {
	lk, err := w.acquireLock()
	if err != nil {
		return OpUnknownError, err
	}
	defer lk.release()

	abs := w.absPath(path)
	rel, err := w.relPath(abs)
	if err != nil {
		w.Log.WithField("path", path).Warn("file is outside the workspace, nothing to remove")
		return OpSuccess, nil
	}

	tracked, err := w.trackedSet()
	if err != nil {
		return OpUnknownError, fmt.Errorf("remove: %w", err)
	}
	if !tracked[rel] {
		w.Log.WithField("path", rel).Warn("file is not tracked, nothing to remove")
		return OpSuccess, nil
	}

	alreadyMissing := !fileExists(abs)
	if !alreadyMissing {
		ok, err := w.confirm(fmt.Sprintf("Remove %s from disk?", rel))
		if err != nil {
			return OpUnknownError, fmt.Errorf("remove: %w", err)
		}
		if !ok {
			w.Log.WithField("path", rel).Info("file removal cancelled by user")
			return OpSuccess, nil
		}
		if err := os.Remove(abs); err != nil {
			return OpUnknownError, fmt.Errorf("remove: %w", err)
		}
	}

	msg := provenance.RemoveMessage(rel, alreadyMissing, prompt, response, src)
	hash, err := w.commitWorkspace(msg)
	if err != nil {
		return StatusOf(err), err
	}

	w.Log.WithFields(logrus.Fields{"commit": hash, "path": rel}).Info("removed file")
	return OpSuccess, nil
}

// confirm consults the injected prompt. Without one, destructive steps are
// declined.
func (w *Workspace) confirm(prompt string) (bool, error) {
	if w.Confirm == nil {
		return false, nil
	}
	return w.Confirm(prompt)
}
