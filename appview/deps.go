package appview

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// DepsFileName is the emitted include-path file's standard name,
// relative to the application root.
const DepsFileName = "deps.txt"

// WriteDepsFile emits the two-line deps.txt format (spec.md §6): line one
// is a ;-joined list of -I<path> source include entries, line two the
// same for views with -J. An empty list yields an empty line, not an
// absent one.
func WriteDepsFile(w io.Writer, sourcePaths, viewPaths []string) error {
	if _, err := fmt.Fprintln(w, joinFlagged("-I", sourcePaths)); err != nil {
		return errors.Wrap(err, "appview: failed to write deps.txt source line")
	}
	if _, err := fmt.Fprintln(w, joinFlagged("-J", viewPaths)); err != nil {
		return errors.Wrap(err, "appview: failed to write deps.txt views line")
	}
	return nil
}

func joinFlagged(flag string, paths []string) string {
	flagged := make([]string, len(paths))
	for i, p := range paths {
		flagged[i] = flag + p
	}
	return strings.Join(flagged, ";")
}
