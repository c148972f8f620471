package workspace

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/memovlab/memov/pkg/provenance"
)

// Track starts versioning the given files or directories. Paths already in
// the HEAD tree keep their recorded blobs; only new paths are read from
// disk. Finding nothing new is a warning, not a failure.
func (w *Workspace) Track(paths []string, prompt, response *string, src provenance.Source) (OpStatus, error) {
	if len(paths) == 0 {
		w.Log.Warn("no files to track")
		return OpSuccess, nil
	}

	lk, err := w.acquireLock()
	if err != nil {
		return OpUnknownError, err
	}
	defer lk.release()

	head, err := w.Head()
	if err != nil {
		return StatusOf(err), err
	}

	blobs := make(map[string]string)
	tracked := make(map[string]bool)
	if head != "" {
		existing, err := w.Store.ListTreeWithBlobs(head)
		if err != nil {
			return OpUnknownError, fmt.Errorf("track: %w", err)
		}
		for rel, hash := range existing {
			blobs[rel] = hash
			tracked[rel] = true
		}
	}

	files, err := w.discover(paths, tracked)
	if err != nil {
		return OpUnknownError, fmt.Errorf("track: %w", err)
	}
	if len(files) == 0 {
		w.Log.Warn("no new files to track, all provided files are already tracked or ignored")
		return OpSuccess, nil
	}

	rels := make([]string, 0, len(files))
	for _, f := range files {
		hash, err := w.Store.WriteBlob(f.Abs)
		if err != nil {
			return OpCommitFailed, fmt.Errorf("%w: %v", ErrCommitFailed, err)
		}
		blobs[f.Rel] = hash
		rels = append(rels, f.Rel)
	}

	hash, err := w.commit(blobs, provenance.TrackMessage(rels, prompt, response, src))
	if err != nil {
		return StatusOf(err), err
	}

	w.Log.WithFields(logrus.Fields{"commit": hash, "files": rels}).Info("tracked files")
	return OpSuccess, nil
}
