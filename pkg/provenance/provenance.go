// Package provenance encodes and decodes the prompt/response metadata
// carried by every snapshot commit.
//
// Metadata lives in two layers: the immutable commit message written when
// the operation ran, and an optional mutable note attached afterwards.
// Overlay merges the two, with note fields taking priority, so provenance
// can be corrected without rewriting history.
package provenance

import "strings"

// Source records who drove an operation.
type Source int

const (
	SourceAgent Source = iota // default: an assisting agent
	SourceUser
)

// String returns the wire form used in commit messages and notes.
func (s Source) String() string {
	if s == SourceUser {
		return "User"
	}
	return "AI"
}

// ParseSource decodes the wire form; anything other than "user" is the agent.
func ParseSource(v string) Source {
	if strings.EqualFold(strings.TrimSpace(v), "user") {
		return SourceUser
	}
	return SourceAgent
}

// Op is the coarse operation kind derived from a commit message.
type Op string

const (
	OpTrack   Op = "track"
	OpSnap    Op = "snap"
	OpRename  Op = "rename"
	OpRemove  Op = "remove"
	OpUnknown Op = "unknown"
)

// OpOf derives the operation kind by keyword match on the first line of a
// commit message.
func OpOf(message string) Op {
	if message == "" {
		return OpUnknown
	}
	first := strings.ToLower(strings.SplitN(message, "\n", 2)[0])

	switch {
	case strings.Contains(first, "track"):
		return OpTrack
	case strings.Contains(first, "snapshot") || strings.Contains(first, "snap"):
		return OpSnap
	case strings.Contains(first, "rename"):
		return OpRename
	case strings.Contains(first, "remove"):
		return OpRemove
	default:
		return OpUnknown
	}
}

// Record is the decoded metadata of one commit. Prompt and Response are nil
// when the recorded value was absent.
type Record struct {
	Op       Op
	Prompt   *string
	Response *string
	Source   Source
	Files    []string // track/remove file lists
	OldPath  string   // rename only
	NewPath  string   // rename only
}

// none is the wire literal for an absent prompt or response.
const none = "None"

func orNone(v *string) string {
	if v == nil {
		return none
	}
	return *v
}

func noneToNil(v string) *string {
	if v == none {
		return nil
	}
	return &v
}

func metaLines(prompt, response *string, src Source) string {
	return "Prompt: " + orNone(prompt) + "\nResponse: " + orNone(response) + "\nSource: " + src.String()
}

// TrackMessage builds the commit message for a track operation.
func TrackMessage(files []string, prompt, response *string, src Source) string {
	return "Track files\n\nFiles: " + strings.Join(files, ", ") + "\n" + metaLines(prompt, response, src)
}

// SnapshotMessage builds the commit message for a snapshot operation.
func SnapshotMessage(prompt, response *string, src Source) string {
	return "Create snapshot\n\n" + metaLines(prompt, response, src)
}

// RenameMessage builds the commit message for a rename. alreadyMoved marks
// that the caller had moved the file before invoking the operation.
func RenameMessage(oldPath, newPath string, alreadyMoved bool, prompt, response *string, src Source) string {
	head := "Rename file\n\n"
	if alreadyMoved {
		head = "Rename file (already renamed by user)\n\n"
	}
	return head + "Files: " + oldPath + " -> " + newPath + "\n" + metaLines(prompt, response, src)
}

// RemoveMessage builds the commit message for a remove. alreadyMissing marks
// that the file was gone from disk before the operation ran.
func RemoveMessage(path string, alreadyMissing bool, prompt, response *string, src Source) string {
	head := "Remove file\n\n"
	if alreadyMissing {
		head = "Remove file (already missing)\n\n"
	}
	return head + "Files: " + path + "\n" + metaLines(prompt, response, src)
}

// ParseMessage decodes a commit message into a Record. Unrecognized lines
// are skipped, so hand-written messages degrade to Op detection only.
func ParseMessage(message string) Record {
	rec := Record{Op: OpOf(message)}

	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Prompt:"):
			rec.Prompt = noneToNil(strings.TrimSpace(strings.TrimPrefix(line, "Prompt:")))
		case strings.HasPrefix(line, "Response:"):
			rec.Response = noneToNil(strings.TrimSpace(strings.TrimPrefix(line, "Response:")))
		case strings.HasPrefix(line, "Source:"):
			rec.Source = ParseSource(strings.TrimPrefix(line, "Source:"))
		case strings.HasPrefix(line, "Files:"):
			rec.parseFiles(strings.TrimSpace(strings.TrimPrefix(line, "Files:")))
		}
	}
	return rec
}

func (rec *Record) parseFiles(v string) {
	if old, newer, found := strings.Cut(v, "->"); found {
		rec.OldPath = strings.TrimSpace(old)
		rec.NewPath = strings.TrimSpace(newer)
		return
	}
	for _, f := range strings.Split(v, ",") {
		if f = strings.TrimSpace(f); f != "" {
			rec.Files = append(rec.Files, f)
		}
	}
}

// BuildNote builds the mutable annotation body. Only provided fields are
// written; the source line is always present.
func BuildNote(prompt, response *string, src Source) string {
	var lines []string
	if prompt != nil {
		lines = append(lines, "Prompt: "+*prompt)
	}
	if response != nil {
		lines = append(lines, "Response: "+*response)
	}
	lines = append(lines, "Source: "+src.String())
	return strings.Join(lines, "\n")
}

// Overlay applies a note on top of a message-derived record. Fields present
// in the note replace the embedded ones; an empty note leaves the record
// unchanged. This is the single place the two-tier precedence lives.
func Overlay(rec Record, note string) Record {
	if note == "" {
		return rec
	}
	for _, line := range strings.Split(note, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Prompt:"):
			rec.Prompt = noneToNil(strings.TrimSpace(strings.TrimPrefix(line, "Prompt:")))
		case strings.HasPrefix(line, "Response:"):
			rec.Response = noneToNil(strings.TrimSpace(strings.TrimPrefix(line, "Response:")))
		}
	}
	return rec
}
