// Package version implements the version identifiers and constraints used
// throughout the package manager: a totally ordered Version type (semantic
// triples, plus the distinguished "head" value) and a Constraint type
// representing a half- or fully-bounded interval over those versions.
package version

import (
	"fmt"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// Version is a single point in the version space: either a semantic
// (major, minor, patch[-pre]) triple, or the distinguished Head value
// denoting "latest trunk". Head compares greater than every numeric
// version; numeric versions compare component-wise.
//
// The interface carries an unexported method so that, as with gps's
// Version/Constraint split, only this package can produce valid
// implementations.
type Version interface {
	fmt.Stringer
	// Compare returns -1, 0, or 1 if the receiver is less than, equal to,
	// or greater than other.
	Compare(other Version) int
	isVersion()
}

func (numericVersion) isVersion() {}
func (headVersion) isVersion()    {}

// Head is the distinguished version denoting "latest trunk". It compares
// greater than any numeric version.
var Head Version = headVersion{}

type headVersion struct{}

func (headVersion) String() string { return "head" }

func (headVersion) Compare(other Version) int {
	if _, ok := other.(headVersion); ok {
		return 0
	}
	return 1
}

type numericVersion struct {
	sv *semver.Version
}

func (v numericVersion) String() string { return v.sv.String() }

func (v numericVersion) Compare(other Version) int {
	switch o := other.(type) {
	case headVersion:
		return -1
	case numericVersion:
		return v.sv.Compare(o.sv)
	default:
		panic("version: unreachable version type")
	}
}

// Parse interprets s as a Version. The literal string "head" (case
// sensitive, per the manifest grammar) produces Head; anything else is
// parsed as a semantic version.
func Parse(s string) (Version, error) {
	if s == "head" {
		return Head, nil
	}
	sv, err := semver.NewVersion(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid version %q", s)
	}
	return numericVersion{sv: sv}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixture construction, not for parsing untrusted input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Less reports whether a sorts before b.
func Less(a, b Version) bool {
	return a.Compare(b) < 0
}

// Equal reports whether a and b denote the same version.
func Equal(a, b Version) bool {
	return a.Compare(b) == 0
}
