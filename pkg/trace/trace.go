// Package trace reads committed history across every branch and renders it
// as display records or exportable JSON.
//
// The cross-branch walk is an approximation, not a causal merge: each
// branch tip is visited in sorted name order and commits reachable from an
// earlier tip are shown once, at first encounter. The order is therefore
// deterministic but not topological.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/memovlab/memov/pkg/provenance"
)

// Store is the subset of the object store the readers consume.
type Store interface {
	RevList(tip string) ([]string, error)
	CommitMessage(hash string) (string, error)
	CommitTimestamp(hash string) (time.Time, error)
	CommitParent(hash string) (string, error)
	Note(hash string) (string, error)
	Diff(hash string) (string, error)
}

// Reader walks history from a snapshot of the branch registry. Branches
// maps branch name to tip commit; Head may be empty when nothing has been
// committed yet.
type Reader struct {
	Store    Store
	Branches map[string]string
	Head     string
}

// HistoryEntry is one row of the history display.
type HistoryEntry struct {
	Hash     string
	Branches []string // tips pointing exactly at this commit
	IsHead   bool
	Record   provenance.Record
}

// History returns every commit reachable from any branch tip, one entry per
// commit, each branch walked oldest to newest. Prompt and response reflect
// the note-over-message precedence.
func (r *Reader) History() ([]HistoryEntry, error) {
	tips := make(map[string][]string, len(r.Branches))
	for _, name := range sortedNames(r.Branches) {
		tip := r.Branches[name]
		tips[tip] = append(tips[tip], name)
	}

	var entries []HistoryEntry
	seen := make(map[string]bool)
	for _, name := range sortedNames(r.Branches) {
		hashes, err := r.Store.RevList(r.Branches[name])
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", name, err)
		}
		for _, hash := range hashes {
			if seen[hash] {
				continue
			}
			seen[hash] = true

			rec, err := r.record(hash)
			if err != nil {
				return nil, fmt.Errorf("history %s: %w", hash, err)
			}
			entries = append(entries, HistoryEntry{
				Hash:     hash,
				Branches: tips[hash],
				IsHead:   hash == r.Head,
				Record:   rec,
			})
		}
	}
	return entries, nil
}

// ExportRecord is one structured trace entry. ParentBranch is always
// serialized, as null for root commits; the remaining optional fields are
// omitted when absent.
type ExportRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Operation    string    `json:"operation"`
	Branch       string    `json:"branch"`
	Prompt       *string   `json:"prompt"`
	Response     *string   `json:"response"`
	Source       string    `json:"source"`
	CommitHash   string    `json:"commit_hash"`
	ParentBranch *string   `json:"parent_branch"`
	ParentCommit string    `json:"parent_commit,omitempty"`
	Files        []string  `json:"files,omitempty"`
	OldPath      string    `json:"old_path,omitempty"`
	NewPath      string    `json:"new_path,omitempty"`
	FilePath     string    `json:"file_path,omitempty"`
	Diff         string    `json:"diff,omitempty"`
}

// Export returns one record per commit across all branches, sorted by
// timestamp with the hash as tiebreak. A commit reachable from several tips
// is attributed to the first branch in sorted name order; the same rule
// names the parent branch of each non-root commit. Diffs are attached
// best-effort for file-mutating operations.
func (r *Reader) Export() ([]ExportRecord, error) {
	owner := make(map[string]string)
	for _, name := range sortedNames(r.Branches) {
		hashes, err := r.Store.RevList(r.Branches[name])
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", name, err)
		}
		for _, hash := range hashes {
			if _, ok := owner[hash]; !ok {
				owner[hash] = name
			}
		}
	}

	hashes := make([]string, 0, len(owner))
	for hash := range owner {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	records := make([]ExportRecord, 0, len(hashes))
	for _, hash := range hashes {
		rec, err := r.record(hash)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", hash, err)
		}
		ts, err := r.Store.CommitTimestamp(hash)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", hash, err)
		}

		out := ExportRecord{
			Timestamp:  ts,
			Operation:  string(rec.Op),
			Branch:     owner[hash],
			Prompt:     rec.Prompt,
			Response:   rec.Response,
			Source:     sourceLabel(rec.Source),
			CommitHash: hash,
			Files:      rec.Files,
			OldPath:    rec.OldPath,
			NewPath:    rec.NewPath,
		}
		if len(rec.Files) == 1 {
			out.FilePath = rec.Files[0]
		}

		parent, err := r.Store.CommitParent(hash)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", hash, err)
		}
		if branch, ok := owner[parent]; parent != "" && ok {
			out.ParentBranch = &branch
			out.ParentCommit = parent
		}

		if rec.Op != provenance.OpUnknown {
			if diff, err := r.Store.Diff(hash); err == nil && diff != "" {
				out.Diff = diff
			}
		}

		records = append(records, out)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].CommitHash < records[j].CommitHash
	})
	return records, nil
}

// ExportJSON writes the export records to w as an indented JSON array.
func (r *Reader) ExportJSON(w io.Writer) error {
	records, err := r.Export()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// record merges the commit message with its mutable note.
func (r *Reader) record(hash string) (provenance.Record, error) {
	msg, err := r.Store.CommitMessage(hash)
	if err != nil {
		return provenance.Record{}, err
	}
	note, err := r.Store.Note(hash)
	if err != nil {
		return provenance.Record{}, err
	}
	return provenance.Overlay(provenance.ParseMessage(msg), note), nil
}

func sourceLabel(s provenance.Source) string {
	if s == provenance.SourceUser {
		return "user"
	}
	return "ai"
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
