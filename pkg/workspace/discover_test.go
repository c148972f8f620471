package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test 1: a nonexistent target fails the whole batch, even when other
// targets are valid.
func TestDiscover_MissingTargetFailsBatch(t *testing.T) {
	w, _ := newTestWorkspace(t)
	writeFile(t, w.Root, "a.txt", "x\n")

	files, err := w.discover([]string{"a.txt", "missing.txt"}, nil)
	if err == nil {
		t.Fatalf("discover succeeded with %d files, want batch failure", len(files))
	}
}

// Test 2: ignored directories are pruned, their contents never surface.
func TestDiscover_PrunesIgnoredDirs(t *testing.T) {
	w, _ := newTestWorkspace(t)
	if err := os.WriteFile(filepath.Join(w.Root, ".memignore"), []byte("vendor/\n*.log\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	writeFile(t, w.Root, "main.go", "package main\n")
	writeFile(t, w.Root, "debug.log", "noise\n")
	writeFile(t, w.Root, "vendor/lib/lib.go", "package lib\n")

	files, err := w.scanAll()
	if err != nil {
		t.Fatalf("scanAll: %v", err)
	}

	got := make(map[string]bool)
	for _, f := range files {
		got[f.Rel] = true
	}
	for _, rel := range []string{"vendor/lib/lib.go", "debug.log"} {
		if got[rel] {
			t.Errorf("%s surfaced despite ignore rules", rel)
		}
	}
	if !got["main.go"] || !got[".memignore"] {
		t.Errorf("expected files missing from scan: %v", got)
	}
}

// Test 3: the metadata directory never surfaces, with or without ignore
// rules.
func TestDiscover_SkipsMetaDir(t *testing.T) {
	w, _ := newTestWorkspace(t)
	writeFile(t, w.Root, "a.txt", "x\n")

	files, err := w.scanAll()
	if err != nil {
		t.Fatalf("scanAll: %v", err)
	}
	for _, f := range files {
		if f.Rel == ".mem" || strings.HasPrefix(f.Rel, ".mem/") {
			t.Errorf("metadata path surfaced: %s", f.Rel)
		}
	}
}

// Test 4: an already-tracked set excludes those paths; nil means
// everything is new.
func TestDiscover_TrackedSetExclusion(t *testing.T) {
	w, _ := newTestWorkspace(t)
	writeFile(t, w.Root, "a.txt", "x\n")
	writeFile(t, w.Root, "b.txt", "y\n")

	files, err := w.discover([]string{"a.txt", "b.txt"}, map[string]bool{"a.txt": true})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(files) != 1 || files[0].Rel != "b.txt" {
		t.Errorf("files = %v, want just b.txt", files)
	}

	files, err = w.discover([]string{"a.txt", "b.txt"}, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want both", files)
	}
}

// Test 5: listing a file twice (directly and via its directory) yields one
// entry, sorted by relative path.
func TestDiscover_Dedup(t *testing.T) {
	w, _ := newTestWorkspace(t)
	writeFile(t, w.Root, "src/a.txt", "x\n")
	writeFile(t, w.Root, "src/b.txt", "y\n")

	files, err := w.discover([]string{"src/a.txt", "src"}, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 entries", files)
	}
	if files[0].Rel != "src/a.txt" || files[1].Rel != "src/b.txt" {
		t.Errorf("files out of order: %v", files)
	}
}
