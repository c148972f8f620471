package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/memovlab/memov/pkg/ignore"
)

const registryFileName = "branches.json"

// branchRefPrefix anchors each branch tip as a ref inside the store so
// garbage collection never prunes registered history. The registry file
// stays authoritative.
const branchRefPrefix = "refs/memov/branches/"

// Registry is the persisted branch record: the current branch (null while
// HEAD is detached) and every branch tip.
type Registry struct {
	Current  *string           `json:"current"`
	Branches map[string]string `json:"branches"`
}

func registryPath(root string) string {
	return filepath.Join(root, ignore.MetaDir, registryFileName)
}

// loadRegistry reads branches.json. A missing file returns (nil, nil): no
// commit has ever been recorded.
func (w *Workspace) loadRegistry() (*Registry, error) {
	data, err := os.ReadFile(registryPath(w.Root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("read registry: unmarshal: %w", err)
	}
	if reg.Branches == nil {
		reg.Branches = make(map[string]string)
	}
	return &reg, nil
}

// saveRegistry rewrites branches.json wholesale through a temp file and
// rename, so a crash never leaves a torn record.
func (w *Workspace) saveRegistry(reg *Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("write registry: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Join(w.Root, ignore.MetaDir), ".branches-tmp-*")
	if err != nil {
		return fmt.Errorf("write registry: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write registry: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write registry: close: %w", err)
	}
	if err := os.Rename(tmpName, registryPath(w.Root)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write registry: rename: %w", err)
	}
	return nil
}

// advance records a newly produced commit. The first commit ever creates
// the registry with the default branch. When HEAD sits on a branch tip,
// that branch advances and stays current. Anywhere else (detached after a
// jump, or on an ancestor) a fresh fork branch is created so existing
// history is never rewritten.
func (w *Workspace) advance(commit string) error {
	reg, err := w.loadRegistry()
	if err != nil {
		return err
	}

	var name string
	if reg == nil {
		name = w.cfg.DefaultBranch
		reg = &Registry{Current: &name, Branches: map[string]string{name: commit}}
	} else {
		head, err := w.Store.ResolveRef(HeadRef)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if head == "" {
			head = reg.Branches[w.cfg.DefaultBranch]
		}

		var onTip bool
		name, onTip = branchAt(reg, head)
		if !onTip {
			name = nextFork(reg, w.cfg.ForkPrefix)
			w.Log.WithField("branch", name).Info("head is detached, forking new branch")
		}
		reg.Branches[name] = commit
		reg.Current = &name
	}

	if err := w.saveRegistry(reg); err != nil {
		return err
	}
	if err := w.Store.UpdateRef(branchRefPrefix+name, commit); err != nil {
		return fmt.Errorf("advance: %w", err)
	}
	if err := w.Store.UpdateRef(HeadRef, commit); err != nil {
		return fmt.Errorf("advance: %w", err)
	}
	return nil
}

// detach clears the current branch and points HEAD at target without
// touching any tip. Jump runs in this mode.
func (w *Workspace) detach(target string) error {
	reg, err := w.loadRegistry()
	if err != nil {
		return err
	}
	if reg == nil {
		return ErrNoHistory
	}

	reg.Current = nil
	if err := w.saveRegistry(reg); err != nil {
		return err
	}
	if err := w.Store.UpdateRef(HeadRef, target); err != nil {
		return fmt.Errorf("detach: %w", err)
	}
	return nil
}

// branchAt returns the branch whose tip is hash. Iteration is sorted so a
// hash shared by several tips resolves identically run to run.
func branchAt(reg *Registry, hash string) (string, bool) {
	if hash == "" {
		return "", false
	}

	names := make([]string, 0, len(reg.Branches))
	for name := range reg.Branches {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if reg.Branches[name] == hash {
			return name, true
		}
	}
	return "", false
}

// nextFork picks the smallest unused <prefix><n> branch name.
func nextFork(reg *Registry, prefix string) string {
	for n := 0; ; n++ {
		name := prefix + strconv.Itoa(n)
		if _, taken := reg.Branches[name]; !taken {
			return name
		}
	}
}
