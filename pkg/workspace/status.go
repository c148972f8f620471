package workspace

import (
	"fmt"
	"sort"
)

// StatusReport partitions the workspace against the HEAD snapshot. The
// four lists are disjoint and cover the union of HEAD-tree paths and
// on-disk paths; each is sorted.
type StatusReport struct {
	Head      string
	Branch    string // empty while HEAD is detached
	Untracked []string
	Deleted   []string
	Modified  []string
	Clean     []string
}

// Status classifies every path in the union of the HEAD tree and the
// on-disk scan. Hashing is pure: nothing is written to the store. Without
// an initialized registry there is nothing to compare against and
// ErrNoHistory is returned.
func (w *Workspace) Status() (*StatusReport, error) {
	reg, err := w.loadRegistry()
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrNoHistory
	}

	head, err := w.Head()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, ErrNoHistory
	}

	tree, err := w.Store.ListTreeWithBlobs(head)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	onDisk, err := w.scanAll()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	report := &StatusReport{Head: head}
	if reg.Current != nil {
		report.Branch = *reg.Current
	}

	diskSet := make(map[string]bool, len(onDisk))
	for _, f := range onDisk {
		diskSet[f.Rel] = true

		want, isTracked := tree[f.Rel]
		if !isTracked {
			report.Untracked = append(report.Untracked, f.Rel)
			continue
		}
		got, err := w.Store.HashBlob(f.Abs)
		if err != nil {
			return nil, fmt.Errorf("status: hash %s: %w", f.Rel, err)
		}
		if got == want {
			report.Clean = append(report.Clean, f.Rel)
		} else {
			report.Modified = append(report.Modified, f.Rel)
		}
	}

	for rel := range tree {
		if !diskSet[rel] {
			report.Deleted = append(report.Deleted, rel)
		}
	}
	sort.Strings(report.Deleted)

	return report, nil
}
