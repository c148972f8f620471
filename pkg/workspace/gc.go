package workspace

import "fmt"

// GC asks the store to drop unreferenced objects. Commits orphaned by a
// crash between commit and ref update are the expected source; registered
// branch tips are anchored as refs and survive collection.
func (w *Workspace) GC() error {
	lk, err := w.acquireLock()
	if err != nil {
		return err
	}
	defer lk.release()

	if err := w.Store.GC(); err != nil {
		return fmt.Errorf("gc: %w", err)
	}
	w.Log.Info("collected unreferenced objects")
	return nil
}
