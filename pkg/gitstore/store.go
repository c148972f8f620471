// Package gitstore drives a bare git repository through plumbing
// subcommands, providing content-addressable storage for snapshot blobs,
// trees, and commits plus refs and mutable per-commit notes. Nothing here
// parses git's on-disk formats; every capability is a subprocess call.
package gitstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Store is a handle on one bare repository.
type Store struct {
	GitDir   string // bare repository path
	WorkRoot string // workspace root, used to derive absolute tree paths
}

// New returns a Store for the bare repository at gitDir serving the
// workspace rooted at workRoot.
func New(gitDir, workRoot string) *Store {
	return &Store{GitDir: gitDir, WorkRoot: workRoot}
}

// CreateBare initializes a bare repository at gitDir.
func CreateBare(gitDir string) error {
	cmd := exec.Command("git", "init", "--bare", gitDir, "--initial-branch=main")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init --bare %s: %w: %s", gitDir, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Ready reports whether the bare repository exists on disk.
func (s *Store) Ready() bool {
	info, err := os.Stat(s.GitDir)
	return err == nil && info.IsDir()
}

// Create initializes the bare repository if it does not exist yet.
func (s *Store) Create() error {
	if s.Ready() {
		return nil
	}
	return CreateBare(s.GitDir)
}

// git runs a plumbing command against the bare repository and returns its
// stdout. stderr is folded into the returned error.
func (s *Store) git(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command("git", append([]string{"--git-dir=" + s.GitDir}, args...)...)
	cmd.Env = identEnv()
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// gitLine runs git and returns stdout with surrounding whitespace trimmed.
func (s *Store) gitLine(args ...string) (string, error) {
	out, err := s.git(nil, args...)
	return strings.TrimSpace(string(out)), err
}

// identEnv returns the process environment with a fixed commit identity.
// Snapshot commits are tool machinery; authorship provenance lives in the
// commit message metadata, not the git author field.
func identEnv() []string {
	return append(os.Environ(),
		"GIT_AUTHOR_NAME=memov",
		"GIT_AUTHOR_EMAIL=memov@localhost",
		"GIT_COMMITTER_NAME=memov",
		"GIT_COMMITTER_EMAIL=memov@localhost",
	)
}

// isExitError reports whether err is a normal nonzero git exit, as opposed
// to a failure to run git at all.
func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// WriteBlob hashes the file at path into the store and returns the blob
// hash.
func (s *Store) WriteBlob(path string) (string, error) {
	return s.gitLine("hash-object", "-w", path)
}

// HashBlob computes the blob hash of the file at path without writing the
// object.
func (s *Store) HashBlob(path string) (string, error) {
	return s.gitLine("hash-object", path)
}

// BuildTree writes a tree object from the given entries and returns its
// hash.
func (s *Store) BuildTree(entries []TreeEntry) (string, error) {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s blob %s\t%s\n", e.Mode, e.Hash, e.Path)
	}

	out, err := s.git([]byte(b.String()), "mktree")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// CommitTree writes a commit object for the tree and returns its hash.
// parent may be empty for a root commit.
func (s *Store) CommitTree(tree, message, parent string) (string, error) {
	args := []string{"commit-tree", tree, "-m", message}
	if parent != "" {
		args = append(args, "-p", parent)
	}
	return s.gitLine(args...)
}

// ResolveRef resolves a ref name, branch, or (possibly abbreviated) commit
// hash to a full commit hash. Unknown names resolve to "" without error.
func (s *Store) ResolveRef(name string) (string, error) {
	out, err := s.gitLine("rev-parse", "--verify", "--quiet", name+"^{commit}")
	if err != nil {
		if isExitError(err) {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// UpdateRef points the named ref at the given commit, creating it if
// needed.
func (s *Store) UpdateRef(name, hash string) error {
	_, err := s.git(nil, "update-ref", name, hash)
	return err
}

// ListTree returns the files of the commit's tree as relative/absolute path
// pairs, in tree order.
func (s *Store) ListTree(commit string) ([]TreeFile, error) {
	out, err := s.git(nil, "ls-tree", "-r", "--name-only", commit)
	if err != nil {
		return nil, err
	}

	var files []TreeFile
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		rel := cleanPath(line)
		files = append(files, TreeFile{
			Rel: rel,
			Abs: filepath.Join(s.WorkRoot, filepath.FromSlash(rel)),
		})
	}
	return files, nil
}

// ListTreeWithBlobs returns the commit's tree as a relative-path → blob-hash
// map.
func (s *Store) ListTreeWithBlobs(commit string) (map[string]string, error) {
	out, err := s.git(nil, "ls-tree", "-r", commit)
	if err != nil {
		return nil, err
	}

	blobs := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		// "<mode> <type> <hash>\t<path>"; the path may contain spaces.
		meta, path, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("ls-tree: unexpected line %q", line)
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			return nil, fmt.Errorf("ls-tree: unexpected line %q", line)
		}
		blobs[cleanPath(path)] = fields[2]
	}
	return blobs, nil
}

// RevList returns the hashes reachable from tip, oldest to newest.
func (s *Store) RevList(tip string) ([]string, error) {
	out, err := s.git(nil, "rev-list", "--reverse", tip)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(out)), nil
}

// CommitMessage returns the full message of a commit.
func (s *Store) CommitMessage(hash string) (string, error) {
	out, err := s.git(nil, "log", "-1", "--format=%B", hash)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// CommitTimestamp returns the author timestamp of a commit.
func (s *Store) CommitTimestamp(hash string) (time.Time, error) {
	out, err := s.gitLine("log", "-1", "--format=%aI", hash)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse commit timestamp %q: %w", out, err)
	}
	return ts, nil
}

// CommitParent returns the parent hash of a commit, or "" for a root
// commit. Commits here form a single-parent chain, so only the first parent
// is reported.
func (s *Store) CommitParent(hash string) (string, error) {
	out, err := s.gitLine("log", "-1", "--format=%P", hash)
	if err != nil {
		return "", err
	}
	parents := strings.Fields(out)
	if len(parents) == 0 {
		return "", nil
	}
	return parents[0], nil
}

// Show returns git's human-readable rendering of the commit.
func (s *Store) Show(hash string) (string, error) {
	out, err := s.git(nil, "show", hash)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Diff returns the patch introduced by the commit. Root commits diff
// against the empty tree.
func (s *Store) Diff(hash string) (string, error) {
	out, err := s.git(nil, "diff-tree", "-p", "--root", "--no-commit-id", hash)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Archive exports the commit's tree as an uncompressed tar stream.
func (s *Store) Archive(hash string) ([]byte, error) {
	return s.git(nil, "archive", "--format=tar", hash)
}

// SetNote attaches (or overwrites) the mutable annotation of a commit.
func (s *Store) SetNote(hash, text string) error {
	_, err := s.git(nil, "notes", "add", "-f", "-m", text, hash)
	return err
}

// Note returns the commit's annotation, or "" when none exists.
func (s *Store) Note(hash string) (string, error) {
	out, err := s.gitLine("notes", "show", hash)
	if err != nil {
		if isExitError(err) {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// GC collects unreferenced objects, such as commits orphaned by a crash
// between commit-tree and the ref update.
func (s *Store) GC() error {
	_, err := s.git(nil, "gc", "--quiet")
	return err
}

// cleanPath undoes git's path quoting in ls-tree output. Quoted paths can
// additionally carry an escaped carriage return from Windows checkouts.
func cleanPath(line string) string {
	line = strings.Trim(line, `"`)
	if i := strings.Index(line, `\r`); i >= 0 {
		line = line[:i]
	}
	return line
}
