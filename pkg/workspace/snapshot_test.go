package workspace

import (
	"testing"

	"github.com/memovlab/memov/pkg/provenance"
)

// Test 1: with no history yet, snap warns and commits nothing.
func TestSnap_NoHistory(t *testing.T) {
	w, _ := newTestWorkspace(t)

	status, err := w.Snap(nil, nil, provenance.SourceAgent)
	if err != nil || status != OpSuccess {
		t.Fatalf("Snap: status=%v err=%v", status, err)
	}
	if head, _ := w.Head(); head != "" {
		t.Errorf("head = %q after no-op snap, want empty", head)
	}
}

// Test 2: snap captures edits to tracked files and advances HEAD.
func TestSnap_CapturesEdit(t *testing.T) {
	w, store := newTestWorkspace(t)

	writeFile(t, w.Root, "a.txt", "v1\n")
	if _, err := w.Track([]string{"a.txt"}, nil, nil, provenance.SourceAgent); err != nil {
		t.Fatalf("Track: %v", err)
	}
	h1, _ := w.Head()
	tree1, _ := store.ListTreeWithBlobs(h1)

	writeFile(t, w.Root, "a.txt", "v2\n")
	status, err := w.Snap(str("edit a"), str("done"), provenance.SourceAgent)
	if err != nil || status != OpSuccess {
		t.Fatalf("Snap: status=%v err=%v", status, err)
	}

	h2, _ := w.Head()
	if h2 == h1 {
		t.Fatal("snap did not advance HEAD")
	}
	tree2, _ := store.ListTreeWithBlobs(h2)
	if tree2["a.txt"] == tree1["a.txt"] {
		t.Error("a.txt blob unchanged after edit")
	}

	msg, _ := store.CommitMessage(h2)
	rec := provenance.ParseMessage(msg)
	if rec.Op != provenance.OpSnap {
		t.Errorf("Op = %q, want snap", rec.Op)
	}
	if rec.Prompt == nil || *rec.Prompt != "edit a" {
		t.Errorf("Prompt = %v, want edit a", rec.Prompt)
	}
}

// Test 3: untracked files stay out of the snapshot.
func TestSnap_ExcludesUntracked(t *testing.T) {
	w, store := newTestWorkspace(t)

	writeFile(t, w.Root, "a.txt", "a\n")
	if _, err := w.Track([]string{"a.txt"}, nil, nil, provenance.SourceAgent); err != nil {
		t.Fatalf("Track: %v", err)
	}

	writeFile(t, w.Root, "stray.txt", "s\n")
	if status, err := w.Snap(nil, nil, provenance.SourceAgent); err != nil || status != OpSuccess {
		t.Fatalf("Snap: status=%v err=%v", status, err)
	}

	head, _ := w.Head()
	tree, _ := store.ListTreeWithBlobs(head)
	if _, ok := tree["stray.txt"]; ok {
		t.Error("untracked stray.txt swept into snapshot")
	}
	if _, ok := tree["a.txt"]; !ok {
		t.Error("tracked a.txt missing from snapshot")
	}
	if len(tree) != 1 {
		t.Errorf("tree = %v, want only a.txt", tree)
	}
}
