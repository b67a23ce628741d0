// Package journal implements the per-installed-package ledger of
// filesystem effects: an ordered, append-only sequence of the files and
// directories an install created, serialized as journal.json. The
// journal, not the filesystem, is authoritative about what an install
// produced, which is what lets uninstall be deterministic and robust to
// co-located user files.
package journal

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// FileName is the journal's standard on-disk name, relative to the
// installed package's directory.
const FileName = "journal.json"

// Kind distinguishes the two kinds of filesystem object a journal entry
// can record.
type Kind string

// Recognized entry kinds.
const (
	RegularFile Kind = "RegularFile"
	Directory   Kind = "Directory"
)

// Entry is a single filesystem effect recorded by an install: either a
// file written, or a directory created. Path is relative to the
// installed package's root.
type Entry struct {
	Kind Kind   `json:"type"`
	Path string `json:"path"`
}

// Journal is the ordered sequence of effects an install recorded. A
// well-formed journal's last entry is always {RegularFile, "journal.json"}
// itself, appended by Seal once materialization is complete.
type Journal struct {
	entries []Entry
	seen    map[string]bool
}

// New returns an empty Journal.
func New() *Journal {
	return &Journal{seen: make(map[string]bool)}
}

// Append records a new effect. Appending the same (kind, path) pair
// twice in one Journal is a no-op, satisfying the installer's
// idempotent-directory-entry requirement (spec.md §4.3 step 4).
func (j *Journal) Append(kind Kind, path string) {
	key := string(kind) + ":" + path
	if j.seen == nil {
		j.seen = make(map[string]bool)
	}
	if j.seen[key] {
		return
	}
	j.seen[key] = true
	j.entries = append(j.entries, Entry{Kind: kind, Path: path})
}

// Has reports whether (kind, path) has already been appended.
func (j *Journal) Has(kind Kind, path string) bool {
	if j.seen == nil {
		return false
	}
	return j.seen[string(kind)+":"+path]
}

// Seal appends the journal's own self-referential closing entry. Call
// this exactly once, after all other entries have been recorded, and
// before the journal is serialized to disk.
func (j *Journal) Seal() {
	j.Append(RegularFile, FileName)
}

// Entries returns the ordered, recorded entries. The slice is not a
// copy; callers must not mutate it.
func (j *Journal) Entries() []Entry {
	return j.entries
}

// Files returns the RegularFile entries, in recorded order.
func (j *Journal) Files() []Entry {
	return j.filterKind(RegularFile)
}

// Directories returns the Directory entries, in recorded order.
func (j *Journal) Directories() []Entry {
	return j.filterKind(Directory)
}

func (j *Journal) filterKind(kind Kind) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Load decodes a Journal previously written by Save.
func Load(r io.Reader) (*Journal, error) {
	var raw struct {
		Entries []Entry `json:"entries"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "journal: failed to decode journal.json")
	}

	j := New()
	for _, e := range raw.Entries {
		j.Append(e.Kind, e.Path)
	}
	return j, nil
}

// Save serializes the Journal to w.
func Save(w io.Writer, j *Journal) error {
	raw := struct {
		Entries []Entry `json:"entries"`
	}{Entries: j.entries}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return errors.Wrap(err, "journal: failed to encode journal.json")
	}
	return nil
}
