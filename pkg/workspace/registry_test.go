package workspace

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/memovlab/memov/pkg/provenance"
)

// Test 1: the first commit creates the registry with the default branch.
func TestRegistry_FirstCommit(t *testing.T) {
	w, _ := newTestWorkspace(t)

	if reg, err := w.loadRegistry(); err != nil || reg != nil {
		t.Fatalf("registry before first commit: %+v, %v", reg, err)
	}

	writeFile(t, w.Root, "a.txt", "x\n")
	if _, err := w.Track([]string{"a.txt"}, nil, nil, provenance.SourceAgent); err != nil {
		t.Fatalf("Track: %v", err)
	}

	reg, err := w.loadRegistry()
	if err != nil || reg == nil {
		t.Fatalf("loadRegistry: %+v, %v", reg, err)
	}
	if reg.Current == nil || *reg.Current != "main" {
		t.Errorf("current = %v, want main", reg.Current)
	}
	if len(reg.Branches) != 1 {
		t.Errorf("branches = %v, want just main", reg.Branches)
	}
}

// Test 2: branches.json uses null for a detached current, not a missing
// key.
func TestRegistry_NullCurrentOnDisk(t *testing.T) {
	w, _ := newTestWorkspace(t)
	writeFile(t, w.Root, "a.txt", "x\n")
	if _, err := w.Track([]string{"a.txt"}, nil, nil, provenance.SourceAgent); err != nil {
		t.Fatalf("Track: %v", err)
	}
	head, _ := w.Head()
	if err := w.Jump(head); err != nil {
		t.Fatalf("Jump: %v", err)
	}

	data, err := os.ReadFile(registryPath(w.Root))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(raw["current"]) != "null" {
		t.Errorf("current on disk = %s, want null", raw["current"])
	}
}

// Test 3: nextFork picks the smallest free index.
func TestNextFork(t *testing.T) {
	reg := &Registry{Branches: map[string]string{
		"main":      "aaa",
		"develop/0": "bbb",
		"develop/2": "ccc",
	}}
	if got := nextFork(reg, "develop/"); got != "develop/1" {
		t.Errorf("nextFork = %q, want develop/1", got)
	}

	reg.Branches["develop/1"] = "ddd"
	if got := nextFork(reg, "develop/"); got != "develop/3" {
		t.Errorf("nextFork = %q, want develop/3", got)
	}
}

// Test 4: branchAt resolves a shared tip to the same branch every time.
func TestBranchAt_SortedResolution(t *testing.T) {
	reg := &Registry{Branches: map[string]string{
		"zeta":  "abc",
		"alpha": "abc",
		"other": "def",
	}}
	for i := 0; i < 20; i++ {
		name, ok := branchAt(reg, "abc")
		if !ok || name != "alpha" {
			t.Fatalf("branchAt = %q, %v; want alpha", name, ok)
		}
	}
	if _, ok := branchAt(reg, ""); ok {
		t.Error("branchAt matched an empty hash")
	}
}

// Test 5: saveRegistry leaves no temp droppings and the result parses.
func TestRegistry_SaveIsClean(t *testing.T) {
	w, _ := newTestWorkspace(t)
	writeFile(t, w.Root, "a.txt", "x\n")
	if _, err := w.Track([]string{"a.txt"}, nil, nil, provenance.SourceAgent); err != nil {
		t.Fatalf("Track: %v", err)
	}

	entries, err := os.ReadDir(w.Root + "/.mem")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if len(e.Name()) > 9 && e.Name()[:9] == ".branches" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	if reg, err := w.loadRegistry(); err != nil || reg == nil {
		t.Fatalf("loadRegistry after save: %+v, %v", reg, err)
	}
}
