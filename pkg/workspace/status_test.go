package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/memovlab/memov/pkg/provenance"
)

// Test 1: every path lands in exactly one of the four classes.
func TestStatus_Partitions(t *testing.T) {
	w, _ := newTestWorkspace(t)

	writeFile(t, w.Root, "clean.txt", "same\n")
	writeFile(t, w.Root, "mod.txt", "before\n")
	gone := writeFile(t, w.Root, "gone.txt", "bye\n")
	if status, err := w.Track([]string{"clean.txt", "mod.txt", "gone.txt"}, nil, nil, provenance.SourceAgent); err != nil || status != OpSuccess {
		t.Fatalf("Track: status=%v err=%v", status, err)
	}

	writeFile(t, w.Root, "mod.txt", "after\n")
	if err := os.Remove(gone); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	writeFile(t, w.Root, "new.txt", "hello\n")

	report, err := w.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if report.Branch != "main" {
		t.Errorf("Branch = %q, want main", report.Branch)
	}
	if report.Head == "" {
		t.Error("Head is empty")
	}

	want := map[string][]string{
		"untracked": {".memignore", "new.txt"},
		"deleted":   {"gone.txt"},
		"modified":  {"mod.txt"},
		"clean":     {"clean.txt"},
	}
	got := map[string][]string{
		"untracked": report.Untracked,
		"deleted":   report.Deleted,
		"modified":  report.Modified,
		"clean":     report.Clean,
	}
	for class, wantPaths := range want {
		if len(got[class]) != len(wantPaths) {
			t.Errorf("%s = %v, want %v", class, got[class], wantPaths)
			continue
		}
		for i, p := range wantPaths {
			if got[class][i] != p {
				t.Errorf("%s = %v, want %v", class, got[class], wantPaths)
				break
			}
		}
	}

	// Disjoint and exhaustive over the path union.
	seen := make(map[string]int)
	for _, list := range got {
		for _, p := range list {
			seen[p]++
		}
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("path %s classified %d times", p, n)
		}
	}
	if len(seen) != 5 {
		t.Errorf("classified %d paths, want 5: %v", len(seen), seen)
	}
}

// Test 2: status without any history fails explicitly.
func TestStatus_NoHistory(t *testing.T) {
	w, _ := newTestWorkspace(t)
	if _, err := w.Status(); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("err = %v, want ErrNoHistory", err)
	}
}

// Test 3: hashing for status never writes blobs into the store.
func TestStatus_PureHashing(t *testing.T) {
	w, store := newTestWorkspace(t)
	writeFile(t, w.Root, "a.txt", "v1\n")
	if _, err := w.Track([]string{"a.txt"}, nil, nil, provenance.SourceAgent); err != nil {
		t.Fatalf("Track: %v", err)
	}

	// New content that was never committed must not appear in the store.
	writeFile(t, w.Root, "a.txt", "v2\n")
	report, err := w.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(report.Modified) != 1 || report.Modified[0] != "a.txt" {
		t.Fatalf("Modified = %v, want a.txt", report.Modified)
	}

	hash, err := store.HashBlob(filepath.Join(w.Root, "a.txt"))
	if err != nil {
		t.Fatalf("HashBlob: %v", err)
	}
	if store.HasBlob(hash) {
		t.Error("status wrote the modified blob into the store")
	}
}

// Test 4: status on a detached HEAD reports an empty branch.
func TestStatus_DetachedBranch(t *testing.T) {
	w, _ := newTestWorkspace(t)
	writeFile(t, w.Root, "a.txt", "x\n")
	if _, err := w.Track([]string{"a.txt"}, nil, nil, provenance.SourceAgent); err != nil {
		t.Fatalf("Track: %v", err)
	}
	head, _ := w.Head()
	if err := w.Jump(head); err != nil {
		t.Fatalf("Jump: %v", err)
	}

	report, err := w.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Branch != "" {
		t.Errorf("Branch = %q, want empty while detached", report.Branch)
	}
	if report.Head != head {
		t.Errorf("Head = %q, want %q", report.Head, head)
	}
}
