package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// Operator is one of the comparison operators recognized by the
// constraint grammar: "op ws? version", or the literal "*" for the
// universal constraint.
type Operator string

// Recognized constraint operators.
const (
	OpEQ    Operator = "=="
	OpGE    Operator = ">="
	OpLE    Operator = "<="
	OpGT    Operator = ">"
	OpLT    Operator = "<"
	OpTilde Operator = "~>"
)

// Constraint is a half- or fully-bounded interval of versions. The zero
// value is the universal constraint (matches everything); use Empty() to
// construct the invalid, nothing-matches constraint.
//
// Constraints support Intersect; two constraints whose intersection is
// empty are conflicting, per the spec's definition, and Intersect
// reports that by returning a Constraint for which Valid() is false.
type Constraint struct {
	lo, hi       Version
	loInc, hiInc bool
	empty        bool
}

// Any is the universal constraint, matching every version. It is what an
// unconstrained dependency ("*" in the manifest, or no properties given
// at all) resolves to.
func Any() Constraint { return Constraint{} }

// Empty is the invalid constraint: it matches no version, and is what
// Intersect produces when two constraints have no overlap.
func Empty() Constraint { return Constraint{empty: true} }

// New builds a single-operator Constraint, e.g. New(OpGE, v) for ">= v".
func New(op Operator, v Version) (Constraint, error) {
	switch op {
	case OpEQ:
		return Constraint{lo: v, loInc: true, hi: v, hiInc: true}, nil
	case OpGE:
		return Constraint{lo: v, loInc: true}, nil
	case OpLE:
		return Constraint{hi: v, hiInc: true}, nil
	case OpGT:
		return Constraint{lo: v, loInc: false}, nil
	case OpLT:
		return Constraint{hi: v, hiInc: false}, nil
	case OpTilde:
		return tildeConstraint(v)
	default:
		return Constraint{}, errors.Errorf("unrecognized constraint operator %q", op)
	}
}

// tildeConstraint implements "~> x.y.z" (compatible-with) as the spec's
// open question directs implementers to treat it, absent a clarified
// source definition: ">= x.y.z, < x.(y+1).0".
func tildeConstraint(v Version) (Constraint, error) {
	nv, ok := v.(numericVersion)
	if !ok {
		// ~> head has no sensible "next minor"; degrade to exact match,
		// matching only head itself.
		return Constraint{lo: v, loInc: true, hi: v, hiInc: true}, nil
	}
	upperStr := fmt.Sprintf("%d.%d.0", nv.sv.Major(), nv.sv.Minor()+1)
	upper, err := semver.NewVersion(upperStr)
	if err != nil {
		return Constraint{}, errors.Wrap(err, "version: failed to compute ~> upper bound")
	}
	return Constraint{
		lo: nv, loInc: true,
		hi: numericVersion{sv: upper}, hiInc: false,
	}, nil
}

// isTildeShape reports whether c is exactly the range tildeConstraint
// would have produced for c.lo: "~> lo" expands to ">= lo, < lo.(minor+1).0",
// so detecting that shape on the way back out lets String() round-trip
// through ParseConstraint instead of emitting an unparseable two-clause
// range.
func isTildeShape(c Constraint) bool {
	if c.lo == nil || c.hi == nil || !c.loInc || c.hiInc {
		return false
	}
	lo, ok := c.lo.(numericVersion)
	if !ok {
		return false
	}
	hi, ok := c.hi.(numericVersion)
	if !ok {
		return false
	}
	return hi.sv.Major() == lo.sv.Major() &&
		hi.sv.Minor() == lo.sv.Minor()+1 &&
		hi.sv.Patch() == 0 &&
		hi.sv.Prerelease() == "" &&
		hi.sv.Metadata() == ""
}

// ParseConstraint interprets a constraint string in the grammar
// "op ws? version", or the literal "*" for the universal constraint.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Any(), nil
	}

	var op Operator
	var rest string
	switch {
	case strings.HasPrefix(s, "=="):
		op, rest = OpEQ, s[2:]
	case strings.HasPrefix(s, ">="):
		op, rest = OpGE, s[2:]
	case strings.HasPrefix(s, "<="):
		op, rest = OpLE, s[2:]
	case strings.HasPrefix(s, "~>"):
		op, rest = OpTilde, s[2:]
	case strings.HasPrefix(s, ">"):
		op, rest = OpGT, s[1:]
	case strings.HasPrefix(s, "<"):
		op, rest = OpLT, s[1:]
	default:
		return Constraint{}, errors.Errorf("unrecognized constraint %q", s)
	}

	v, err := Parse(strings.TrimSpace(rest))
	if err != nil {
		return Constraint{}, err
	}
	return New(op, v)
}

// Valid reports whether the constraint can match at least one version.
func (c Constraint) Valid() bool {
	if c.empty {
		return false
	}
	if c.lo == nil || c.hi == nil {
		return true
	}
	switch cmp := c.lo.Compare(c.hi); {
	case cmp < 0:
		return true
	case cmp > 0:
		return false
	default:
		return c.loInc && c.hiInc
	}
}

// Matches indicates if the provided Version is allowed by the Constraint.
func (c Constraint) Matches(v Version) bool {
	if c.empty {
		return false
	}
	if c.lo != nil {
		cmp := v.Compare(c.lo)
		if cmp < 0 || (cmp == 0 && !c.loInc) {
			return false
		}
	}
	if c.hi != nil {
		cmp := v.Compare(c.hi)
		if cmp > 0 || (cmp == 0 && !c.hiInc) {
			return false
		}
	}
	return true
}

// Intersect computes the intersection of the receiver with other. The
// result's Valid() is false iff the two constraints are conflicting.
func (c Constraint) Intersect(other Constraint) Constraint {
	if c.empty || other.empty {
		return Empty()
	}

	out := Constraint{lo: c.lo, loInc: c.loInc, hi: c.hi, hiInc: c.hiInc}

	if other.lo != nil {
		if out.lo == nil || other.lo.Compare(out.lo) > 0 || (other.lo.Compare(out.lo) == 0 && !other.loInc) {
			out.lo, out.loInc = other.lo, other.loInc
		}
	}
	if other.hi != nil {
		if out.hi == nil || other.hi.Compare(out.hi) < 0 || (other.hi.Compare(out.hi) == 0 && !other.hiInc) {
			out.hi, out.hiInc = other.hi, other.hiInc
		}
	}

	if !out.Valid() {
		return Empty()
	}
	return out
}

// String renders the constraint back into roughly the grammar it was
// parsed from. Bounded-both-sides constraints that didn't come from a
// single operator (the product of an Intersect) render as a range.
func (c Constraint) String() string {
	switch {
	case c.empty:
		return "<empty>"
	case c.lo == nil && c.hi == nil:
		return "*"
	case c.lo != nil && c.hi != nil && c.loInc && c.hiInc && Equal(c.lo, c.hi):
		return "==" + c.lo.String()
	case c.lo != nil && c.hi == nil:
		if c.loInc {
			return ">=" + c.lo.String()
		}
		return ">" + c.lo.String()
	case c.hi != nil && c.lo == nil:
		if c.hiInc {
			return "<=" + c.hi.String()
		}
		return "<" + c.hi.String()
	case isTildeShape(c):
		return "~>" + c.lo.String()
	default:
		lo := ">"
		if c.loInc {
			lo = ">="
		}
		hi := "<"
		if c.hiInc {
			hi = "<="
		}
		return fmt.Sprintf("%s%s, %s%s", lo, c.lo.String(), hi, c.hi.String())
	}
}
