package workspace

import (
	"errors"
	"fmt"

	"github.com/memovlab/memov/pkg/provenance"
)

// Amend attaches or overwrites the mutable prompt/response note on an
// existing commit. The commit identity and branch tips are untouched, so
// provenance can be corrected without rewriting history. At least one of
// prompt or response must be given.
func (w *Workspace) Amend(target string, prompt, response *string, src provenance.Source) error {
	if prompt == nil && response == nil {
		return errors.New("amend: no prompt or response provided")
	}

	lk, err := w.acquireLock()
	if err != nil {
		return err
	}
	defer lk.release()

	hash, err := w.Store.ResolveRef(target)
	if err != nil {
		return fmt.Errorf("amend: %w", err)
	}
	if hash == "" {
		return fmt.Errorf("amend: unknown commit %q", target)
	}

	if err := w.Store.SetNote(hash, provenance.BuildNote(prompt, response, src)); err != nil {
		return fmt.Errorf("amend: %w", err)
	}

	w.Log.WithField("commit", hash).Info("added note to commit")
	return nil
}
