// Package storetest provides an in-memory implementation of the object
// store contract so core tests can run without a git binary. Hashes are
// computed the way git computes them, and Archive emits genuine tar
// streams, so restore paths can be exercised end to end.
package storetest

import (
	"archive/tar"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/memovlab/memov/pkg/gitstore"
)

type commit struct {
	tree    string
	parent  string
	message string
	when    time.Time
}

// Fake is an in-memory object store.
type Fake struct {
	WorkRoot string

	// NotReady simulates a missing bare repository until Create is called.
	NotReady bool

	// CommitTreeErr, when set, makes every CommitTree call fail.
	CommitTreeErr error

	// GCCalls counts GC invocations.
	GCCalls int

	blobs   map[string][]byte
	trees   map[string]map[string]string
	commits map[string]*commit
	refs    map[string]string
	notes   map[string]string

	clock time.Time
}

// New returns an empty Fake serving the workspace rooted at workRoot.
func New(workRoot string) *Fake {
	return &Fake{
		WorkRoot: workRoot,
		blobs:    make(map[string][]byte),
		trees:    make(map[string]map[string]string),
		commits:  make(map[string]*commit),
		refs:     make(map[string]string),
		notes:    make(map[string]string),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *Fake) Ready() bool { return !f.NotReady }

func (f *Fake) Create() error {
	f.NotReady = false
	return nil
}

// hashObject mirrors git's object hashing: sha1 over a type+length header
// followed by the payload.
func hashObject(kind string, data []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", kind, len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (f *Fake) WriteBlob(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("write blob %s: %w", path, err)
	}
	h := hashObject("blob", data)
	f.blobs[h] = data
	return h, nil
}

func (f *Fake) HashBlob(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash blob %s: %w", path, err)
	}
	return hashObject("blob", data), nil
}

func (f *Fake) BuildTree(entries []gitstore.TreeEntry) (string, error) {
	tree := make(map[string]string, len(entries))
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		tree[e.Path] = e.Hash
		lines = append(lines, e.Mode+" "+e.Hash+"\t"+e.Path)
	}
	sort.Strings(lines)

	h := hashObject("tree", []byte(strings.Join(lines, "\n")))
	f.trees[h] = tree
	return h, nil
}

func (f *Fake) CommitTree(tree, message, parent string) (string, error) {
	if f.CommitTreeErr != nil {
		return "", f.CommitTreeErr
	}
	if _, ok := f.trees[tree]; !ok {
		return "", fmt.Errorf("commit-tree: unknown tree %q", tree)
	}
	if parent != "" {
		if _, ok := f.commits[parent]; !ok {
			return "", fmt.Errorf("commit-tree: unknown parent %q", parent)
		}
	}

	// One-second ticks keep commit times distinct and ordered.
	f.clock = f.clock.Add(time.Second)
	when := f.clock

	payload := fmt.Sprintf("tree %s\nparent %s\ntime %s\n\n%s", tree, parent, when.Format(time.RFC3339), message)
	h := hashObject("commit", []byte(payload))
	f.commits[h] = &commit{tree: tree, parent: parent, message: message, when: when}
	return h, nil
}

// lookup resolves a ref name, full hash, or unique hash prefix to a stored
// commit.
func (f *Fake) lookup(name string) (string, *commit) {
	if h, ok := f.refs[name]; ok {
		name = h
	}
	if c, ok := f.commits[name]; ok {
		return name, c
	}
	if len(name) >= 4 {
		var match string
		for h := range f.commits {
			if strings.HasPrefix(h, name) {
				if match != "" {
					return "", nil // ambiguous
				}
				match = h
			}
		}
		if match != "" {
			return match, f.commits[match]
		}
	}
	return "", nil
}

func (f *Fake) ResolveRef(name string) (string, error) {
	h, _ := f.lookup(name)
	return h, nil
}

func (f *Fake) UpdateRef(name, hash string) error {
	if _, ok := f.commits[hash]; !ok {
		return fmt.Errorf("update-ref %s: unknown commit %q", name, hash)
	}
	f.refs[name] = hash
	return nil
}

func (f *Fake) treeOf(commitish string) (map[string]string, error) {
	_, c := f.lookup(commitish)
	if c == nil {
		return nil, fmt.Errorf("unknown commit %q", commitish)
	}
	return f.trees[c.tree], nil
}

func (f *Fake) ListTree(commitish string) ([]gitstore.TreeFile, error) {
	tree, err := f.treeOf(commitish)
	if err != nil {
		return nil, err
	}

	rels := make([]string, 0, len(tree))
	for rel := range tree {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	files := make([]gitstore.TreeFile, 0, len(rels))
	for _, rel := range rels {
		files = append(files, gitstore.TreeFile{
			Rel: rel,
			Abs: filepath.Join(f.WorkRoot, filepath.FromSlash(rel)),
		})
	}
	return files, nil
}

func (f *Fake) ListTreeWithBlobs(commitish string) (map[string]string, error) {
	tree, err := f.treeOf(commitish)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(tree))
	for rel, h := range tree {
		out[rel] = h
	}
	return out, nil
}

func (f *Fake) RevList(tip string) ([]string, error) {
	h, c := f.lookup(tip)
	if c == nil {
		return nil, fmt.Errorf("rev-list: unknown tip %q", tip)
	}

	var hist []string
	for h != "" {
		hist = append(hist, h)
		h = f.commits[h].parent
	}
	// Walked newest to oldest; reverse.
	for i, j := 0, len(hist)-1; i < j; i, j = i+1, j-1 {
		hist[i], hist[j] = hist[j], hist[i]
	}
	return hist, nil
}

func (f *Fake) CommitMessage(hash string) (string, error) {
	_, c := f.lookup(hash)
	if c == nil {
		return "", fmt.Errorf("unknown commit %q", hash)
	}
	return c.message, nil
}

func (f *Fake) CommitTimestamp(hash string) (time.Time, error) {
	_, c := f.lookup(hash)
	if c == nil {
		return time.Time{}, fmt.Errorf("unknown commit %q", hash)
	}
	return c.when, nil
}

func (f *Fake) CommitParent(hash string) (string, error) {
	_, c := f.lookup(hash)
	if c == nil {
		return "", fmt.Errorf("unknown commit %q", hash)
	}
	return c.parent, nil
}

func (f *Fake) Show(hash string) (string, error) {
	h, c := f.lookup(hash)
	if c == nil {
		return "", fmt.Errorf("unknown commit %q", hash)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\nDate: %s\n\n", h, c.when.Format(time.RFC3339))
	for _, line := range strings.Split(c.message, "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String(), nil
}

// Diff emits a minimal patch header per changed path, enough for readers
// that treat diffs as opaque best-effort text.
func (f *Fake) Diff(hash string) (string, error) {
	_, c := f.lookup(hash)
	if c == nil {
		return "", fmt.Errorf("unknown commit %q", hash)
	}

	after := f.trees[c.tree]
	before := map[string]string{}
	if c.parent != "" {
		before = f.trees[f.commits[c.parent].tree]
	}

	changed := make(map[string]bool)
	for rel, h := range after {
		if before[rel] != h {
			changed[rel] = true
		}
	}
	for rel := range before {
		if _, ok := after[rel]; !ok {
			changed[rel] = true
		}
	}

	rels := make([]string, 0, len(changed))
	for rel := range changed {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	var b strings.Builder
	for _, rel := range rels {
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", rel, rel)
	}
	return b.String(), nil
}

func (f *Fake) Archive(hash string) ([]byte, error) {
	tree, err := f.treeOf(hash)
	if err != nil {
		return nil, err
	}

	rels := make([]string, 0, len(tree))
	for rel := range tree {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, rel := range rels {
		data := f.blobs[tree[rel]]
		hdr := &tar.Header{
			Name: rel,
			Mode: 0o644,
			Size: int64(len(data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Fake) SetNote(hash, text string) error {
	h, c := f.lookup(hash)
	if c == nil {
		return fmt.Errorf("unknown commit %q", hash)
	}
	f.notes[h] = text
	return nil
}

func (f *Fake) Note(hash string) (string, error) {
	h, _ := f.lookup(hash)
	return f.notes[h], nil
}

func (f *Fake) GC() error {
	f.GCCalls++
	return nil
}

// HasBlob reports whether a blob with the given hash was ever written.
func (f *Fake) HasBlob(hash string) bool {
	_, ok := f.blobs[hash]
	return ok
}
