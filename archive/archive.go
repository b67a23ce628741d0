// Package archive defines the Archive Driver interface the installer
// consumes to read package archives, and the archive-prefix detection
// logic materialization depends on. The archive format itself (zip, tar,
// etc.) is an external collaborator; concrete drivers live in
// subpackages.
package archive

import (
	"path"
	"strings"

	radix "github.com/armon/go-radix"
)

// MemberKind distinguishes a file member from a directory member.
type MemberKind int

// Recognized member kinds.
const (
	File MemberKind = iota
	Dir
)

// Member is a single archive entry. Path is always forward-slash
// normalized, regardless of the host archive format's native separator.
type Member struct {
	Path string
	Kind MemberKind
}

// Driver exposes an archive's members and lets the installer pull the
// bytes of any one of them.
type Driver interface {
	// Members returns every entry in the archive, in the archive's
	// native enumeration order. Materialization preserves this order.
	Members() ([]Member, error)
	// Expand returns the bytes of a file member previously returned by
	// Members. Calling Expand on a directory member is a programmer
	// error.
	Expand(m Member) ([]byte, error)
}

// manifestBasename is the filename Prefix searches for to anchor the
// package prefix (spec's Installer step 3).
const manifestBasename = "package.json"

// Prefix locates the package prefix within an archive's member list: the
// parent directory of the archive's unique package.json member. If no
// member is named package.json, or more than one is, Prefix falls back
// to the deepest common ancestor of every path-bearing member, computed
// via a radix tree over the members' paths (the same
// longest-common-prefix technique golang-dep's solver uses for its own
// import-path matching).
func Prefix(members []Member) string {
	var found []string
	for _, m := range members {
		if m.Kind == File && path.Base(m.Path) == manifestBasename {
			found = append(found, path.Dir(m.Path))
		}
	}
	if len(found) == 1 {
		if found[0] == "." {
			return ""
		}
		return found[0]
	}
	return commonAncestor(members)
}

// commonAncestor returns the deepest directory prefix shared by every
// member's path, or "" if the members share no directory. Every member
// path is inserted into a radix tree; because a radix tree walks its
// keys in sorted order, the longest common prefix across the whole set
// is exactly the longest common prefix between the lexicographically
// smallest and largest keys (golang-dep's solver leans on the same
// radix tree for its own prefix-matching over path-like strings).
func commonAncestor(members []Member) string {
	if len(members) == 0 {
		return ""
	}

	t := radix.New()
	for _, m := range members {
		t.Insert(m.Path, nil)
	}

	minKey, _, ok := t.Minimum()
	if !ok {
		return ""
	}
	maxKey, _, _ := t.Maximum()

	shared := sharedPrefix(minKey, maxKey)
	if idx := strings.LastIndexByte(shared, '/'); idx >= 0 {
		return shared[:idx]
	}
	return ""
}

func sharedPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// NormalizePath converts a native archive path separator to the
// forward-slash form every Member.Path is stored in.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
