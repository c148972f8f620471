// Package workspace implements the snapshot manager: the state machine
// that decides, for every mutating operation, what the next commit's full
// tree is, which branch advances, and how HEAD moves. It combines the
// ignore matcher, the branch registry, and the object store; the store
// itself is an external collaborator reached through the Store interface.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/memovlab/memov/pkg/gitstore"
	"github.com/memovlab/memov/pkg/ignore"
)

// HeadRef is the ref tracking the last produced or restored commit. It
// lives in its own namespace so it can detach from every branch.
const HeadRef = "refs/memov/HEAD"

const storeDirName = "memov.git"

var (
	ErrProjectNotFound = errors.New("project directory not found")
	ErrStoreNotFound   = errors.New("object store not found")
	ErrCommitFailed    = errors.New("failed to commit")
	ErrNoHistory       = errors.New("no snapshot history")
)

// OpStatus classifies the outcome of a public operation.
type OpStatus int

const (
	OpSuccess OpStatus = iota
	OpProjectNotFound
	OpStoreNotFound
	OpCommitFailed
	OpUnknownError
)

func (s OpStatus) String() string {
	switch s {
	case OpSuccess:
		return "success"
	case OpProjectNotFound:
		return "project_not_found"
	case OpStoreNotFound:
		return "object_store_not_found"
	case OpCommitFailed:
		return "failed_to_commit"
	default:
		return "unknown_error"
	}
}

// StatusOf maps an operation error onto the status taxonomy. A nil error
// is OpSuccess.
func StatusOf(err error) OpStatus {
	switch {
	case err == nil:
		return OpSuccess
	case errors.Is(err, ErrProjectNotFound):
		return OpProjectNotFound
	case errors.Is(err, ErrStoreNotFound):
		return OpStoreNotFound
	case errors.Is(err, ErrCommitFailed):
		return OpCommitFailed
	default:
		return OpUnknownError
	}
}

// Store is the object-store contract the workspace drives. *gitstore.Store
// implements it; tests substitute the in-memory fake.
type Store interface {
	Ready() bool
	Create() error

	WriteBlob(path string) (string, error)
	HashBlob(path string) (string, error)
	BuildTree(entries []gitstore.TreeEntry) (string, error)
	CommitTree(tree, message, parent string) (string, error)
	ResolveRef(name string) (string, error)
	UpdateRef(name, hash string) error
	ListTree(commit string) ([]gitstore.TreeFile, error)
	ListTreeWithBlobs(commit string) (map[string]string, error)
	RevList(tip string) ([]string, error)
	Show(hash string) (string, error)
	Archive(hash string) ([]byte, error)
	SetNote(hash, text string) error
	Note(hash string) (string, error)
	GC() error
}

// Workspace is an opened project directory with its snapshot store.
type Workspace struct {
	Root  string // project root, absolute
	Store Store
	Log   logrus.FieldLogger

	// Confirm asks the user a yes/no question. Remove consults it before
	// deleting a file that still exists on disk; a nil Confirm declines.
	Confirm func(prompt string) (bool, error)

	cfg *Config
}

// StoreDir returns the bare object store location for a workspace root.
func StoreDir(root string) string {
	return filepath.Join(root, ignore.MetaDir, storeDirName)
}

// LogPath returns the operation log location for a workspace root.
func LogPath(root string) string {
	return filepath.Join(root, ignore.MetaDir, "mem.log")
}

// Initialized reports whether root carries workspace metadata.
func Initialized(root string) bool {
	info, err := os.Stat(filepath.Join(root, ignore.MetaDir))
	return err == nil && info.IsDir()
}

// Open opens the workspace rooted at root. The store must already exist;
// Init creates one.
func Open(root string, store Store, log logrus.FieldLogger) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", abs, ErrProjectNotFound)
	}
	if !store.Ready() {
		return nil, fmt.Errorf("open %s: %w (run `mem init` first)", abs, ErrStoreNotFound)
	}

	cfg, err := LoadConfig(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", abs, err)
	}
	return &Workspace{Root: abs, Store: store, Log: log, cfg: cfg}, nil
}

// Init creates the metadata directory, the bare object store, a default
// ignore file, and a default config. Re-running on an initialized
// workspace is harmless. Nothing is committed: the first commit is
// whatever the first track produces.
func Init(root string, store Store, log logrus.FieldLogger) (OpStatus, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return OpUnknownError, fmt.Errorf("init: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return OpProjectNotFound, fmt.Errorf("init %s: %w", abs, ErrProjectNotFound)
	}

	if err := os.MkdirAll(filepath.Join(abs, ignore.MetaDir), 0o755); err != nil {
		return OpUnknownError, fmt.Errorf("init: %w", err)
	}
	if err := store.Create(); err != nil {
		return OpStoreNotFound, fmt.Errorf("init: %w: %v", ErrStoreNotFound, err)
	}

	// Seed the ignore file once; never clobber user patterns.
	ignorePath := filepath.Join(abs, ignore.File)
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		const template = "# Add files/directories to ignore from memov tracking\n"
		if err := os.WriteFile(ignorePath, []byte(template), 0o644); err != nil {
			return OpUnknownError, fmt.Errorf("init: write %s: %w", ignore.File, err)
		}
	}

	if _, err := os.Stat(configPath(abs)); os.IsNotExist(err) {
		if err := SaveConfig(abs, DefaultConfig()); err != nil {
			return OpUnknownError, fmt.Errorf("init: %w", err)
		}
	}

	log.WithField("root", abs).Info("initialized memov workspace")
	return OpSuccess, nil
}

// Head resolves the commit HEAD points at, falling back to the default
// branch tip when the ref is unset. Empty means no history yet.
func (w *Workspace) Head() (string, error) {
	h, err := w.Store.ResolveRef(HeadRef)
	if err != nil {
		return "", fmt.Errorf("resolve head: %w", err)
	}
	if h != "" {
		return h, nil
	}
	reg, err := w.loadRegistry()
	if err != nil || reg == nil {
		return "", err
	}
	return reg.Branches[w.cfg.DefaultBranch], nil
}

// Config returns the workspace configuration loaded at Open.
func (w *Workspace) Config() *Config {
	return w.cfg
}

// Branches returns the registered branch tips and the current branch name
// (nil when HEAD is detached or nothing is committed yet).
func (w *Workspace) Branches() (map[string]string, *string, error) {
	reg, err := w.loadRegistry()
	if err != nil {
		return nil, nil, err
	}
	if reg == nil {
		return map[string]string{}, nil, nil
	}
	return reg.Branches, reg.Current, nil
}

func (w *Workspace) absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.Root, path)
}

// relPath converts an absolute path to the slash-separated
// workspace-relative form used in trees.
func (w *Workspace) relPath(abs string) (string, error) {
	rel, err := filepath.Rel(w.Root, abs)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", abs, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the workspace", abs)
	}
	return filepath.ToSlash(rel), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
