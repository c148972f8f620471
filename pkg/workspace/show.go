package workspace

import "fmt"

// Show returns the store's raw display of a commit plus the files its
// snapshot tracks. target may be a short hash.
func (w *Workspace) Show(target string) (string, []string, error) {
	hash, err := w.Store.ResolveRef(target)
	if err != nil {
		return "", nil, fmt.Errorf("show: %w", err)
	}
	if hash == "" {
		return "", nil, fmt.Errorf("show: unknown commit %q", target)
	}

	out, err := w.Store.Show(hash)
	if err != nil {
		return "", nil, fmt.Errorf("show: %w", err)
	}
	files, err := w.Store.ListTree(hash)
	if err != nil {
		return "", nil, fmt.Errorf("show: %w", err)
	}

	rels := make([]string, 0, len(files))
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	return out, rels, nil
}
