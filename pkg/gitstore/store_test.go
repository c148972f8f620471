package gitstore

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// requireGit skips tests that need a real git binary.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// newTestStore creates a bare repository under a fresh workspace root.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	gitDir := filepath.Join(root, ".mem", "memov.git")
	if err := CreateBare(gitDir); err != nil {
		t.Fatalf("CreateBare: %v", err)
	}
	return New(gitDir, root), root
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return abs
}

// commitFiles writes blobs for the given rel→content map and commits the
// resulting tree on top of parent.
func commitFiles(t *testing.T, s *Store, root string, files map[string]string, message, parent string) string {
	t.Helper()
	var entries []TreeEntry
	for rel, content := range files {
		abs := writeFile(t, root, rel, content)
		h, err := s.WriteBlob(abs)
		if err != nil {
			t.Fatalf("WriteBlob(%s): %v", rel, err)
		}
		entries = append(entries, TreeEntry{Mode: ModeFile, Hash: h, Path: rel})
	}
	tree, err := s.BuildTree(entries)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	commit, err := s.CommitTree(tree, message, parent)
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	return commit
}

// Test 1: Blob → tree → commit round trip, read back through both tree
// listings and the message accessor.
func TestStore_CommitRoundTrip(t *testing.T) {
	requireGit(t)
	s, root := newTestStore(t)

	commit := commitFiles(t, s, root, map[string]string{
		"a.txt":     "alpha\n",
		"sub/b.txt": "beta\n",
	}, "Track files\n\nFiles: a.txt, sub/b.txt\nPrompt: None\nResponse: None\nSource: AI", "")

	files, err := s.ListTree(commit)
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("ListTree returned %d files, want 2", len(files))
	}
	for _, f := range files {
		if f.Abs != filepath.Join(root, filepath.FromSlash(f.Rel)) {
			t.Errorf("Abs = %q, want joined under %q", f.Abs, root)
		}
	}

	blobs, err := s.ListTreeWithBlobs(commit)
	if err != nil {
		t.Fatalf("ListTreeWithBlobs: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("ListTreeWithBlobs returned %d entries, want 2", len(blobs))
	}
	if blobs["a.txt"] == "" || blobs["sub/b.txt"] == "" {
		t.Errorf("missing blob hashes: %v", blobs)
	}

	msg, err := s.CommitMessage(commit)
	if err != nil {
		t.Fatalf("CommitMessage: %v", err)
	}
	if msg != "Track files\n\nFiles: a.txt, sub/b.txt\nPrompt: None\nResponse: None\nSource: AI" {
		t.Errorf("CommitMessage = %q", msg)
	}
}

// Test 2: Ref update and resolution, including abbreviated hashes and
// unknown names.
func TestStore_Refs(t *testing.T) {
	requireGit(t)
	s, root := newTestStore(t)

	commit := commitFiles(t, s, root, map[string]string{"a.txt": "one\n"}, "Track files", "")

	if err := s.UpdateRef("refs/memov/HEAD", commit); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	got, err := s.ResolveRef("refs/memov/HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != commit {
		t.Errorf("ResolveRef = %q, want %q", got, commit)
	}

	// Abbreviated hash resolves to the full one.
	short, err := s.ResolveRef(commit[:7])
	if err != nil {
		t.Fatalf("ResolveRef(short): %v", err)
	}
	if short != commit {
		t.Errorf("ResolveRef(short) = %q, want %q", short, commit)
	}

	// Unknown names resolve to empty with no error.
	missing, err := s.ResolveRef("refs/memov/NOPE")
	if err != nil {
		t.Fatalf("ResolveRef(missing): %v", err)
	}
	if missing != "" {
		t.Errorf("ResolveRef(missing) = %q, want empty", missing)
	}
}

// Test 3: RevList is oldest → newest and CommitParent follows the chain.
func TestStore_RevListAndParent(t *testing.T) {
	requireGit(t)
	s, root := newTestStore(t)

	c1 := commitFiles(t, s, root, map[string]string{"a.txt": "v1\n"}, "Track files", "")
	c2 := commitFiles(t, s, root, map[string]string{"a.txt": "v2\n"}, "Create snapshot", c1)

	hist, err := s.RevList(c2)
	if err != nil {
		t.Fatalf("RevList: %v", err)
	}
	if len(hist) != 2 || hist[0] != c1 || hist[1] != c2 {
		t.Errorf("RevList = %v, want [%s %s]", hist, c1, c2)
	}

	parent, err := s.CommitParent(c2)
	if err != nil {
		t.Fatalf("CommitParent: %v", err)
	}
	if parent != c1 {
		t.Errorf("CommitParent(c2) = %q, want %q", parent, c1)
	}

	rootParent, err := s.CommitParent(c1)
	if err != nil {
		t.Fatalf("CommitParent(root): %v", err)
	}
	if rootParent != "" {
		t.Errorf("CommitParent(root) = %q, want empty", rootParent)
	}
}

// Test 4: Notes are absent until set, then readable and overwritable.
func TestStore_Notes(t *testing.T) {
	requireGit(t)
	s, root := newTestStore(t)

	commit := commitFiles(t, s, root, map[string]string{"a.txt": "x\n"}, "Track files", "")

	note, err := s.Note(commit)
	if err != nil {
		t.Fatalf("Note(absent): %v", err)
	}
	if note != "" {
		t.Errorf("Note(absent) = %q, want empty", note)
	}

	if err := s.SetNote(commit, "Prompt: first\nSource: AI"); err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	if err := s.SetNote(commit, "Prompt: corrected\nSource: User"); err != nil {
		t.Fatalf("SetNote(overwrite): %v", err)
	}

	note, err = s.Note(commit)
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if note != "Prompt: corrected\nSource: User" {
		t.Errorf("Note = %q", note)
	}
}

// Test 5: Archive produces a tar of the commit's tree.
func TestStore_Archive(t *testing.T) {
	requireGit(t)
	s, root := newTestStore(t)

	commit := commitFiles(t, s, root, map[string]string{"dir/file.txt": "payload\n"}, "Track files", "")

	data, err := s.Archive(commit)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	tr := tar.NewReader(bytes.NewReader(data))
	found := false
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar.Next: %v", err)
		}
		if hdr.Name == "dir/file.txt" {
			content, err := io.ReadAll(tr)
			if err != nil {
				t.Fatalf("tar read: %v", err)
			}
			if string(content) != "payload\n" {
				t.Errorf("archived content = %q, want %q", content, "payload\n")
			}
			found = true
		}
	}
	if !found {
		t.Error("archive missing dir/file.txt")
	}
}

// Test 6: HashBlob matches the write path's hash without storing.
func TestStore_HashBlobIsPure(t *testing.T) {
	requireGit(t)
	s, root := newTestStore(t)

	abs := writeFile(t, root, "a.txt", "same bytes\n")

	pure, err := s.HashBlob(abs)
	if err != nil {
		t.Fatalf("HashBlob: %v", err)
	}
	written, err := s.WriteBlob(abs)
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if pure != written {
		t.Errorf("HashBlob = %q, WriteBlob = %q; want identical", pure, written)
	}
}

// Test 7: Commit timestamps parse as RFC 3339 and are recent.
func TestStore_CommitTimestamp(t *testing.T) {
	requireGit(t)
	s, root := newTestStore(t)

	commit := commitFiles(t, s, root, map[string]string{"a.txt": "x\n"}, "Track files", "")

	ts, err := s.CommitTimestamp(commit)
	if err != nil {
		t.Fatalf("CommitTimestamp: %v", err)
	}
	if d := time.Since(ts); d < 0 || d > time.Hour {
		t.Errorf("CommitTimestamp = %v, not recent", ts)
	}
}

// Test 8: ls-tree path cleanup handles quoting and escaped carriage
// returns. No git needed.
func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain.txt", "plain.txt"},
		{`"quoted name.txt"`, "quoted name.txt"},
		{`"windows.txt\r"`, "windows.txt"},
		{`sub/nested.txt`, "sub/nested.txt"},
	}
	for _, tc := range tests {
		if got := cleanPath(tc.in); got != tc.want {
			t.Errorf("cleanPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
