// Package testsupplier provides an in-memory Supplier test double, used
// to exercise the resolver, planner, and installer without a real
// network or registry present.
package testsupplier

import (
	"os"

	"github.com/fabricfw/modkeeper/manifest"
	"github.com/fabricfw/modkeeper/supplier"
	"github.com/fabricfw/modkeeper/version"
)

// Offering is a single version of a package the test double knows how
// to serve, along with the literal archive bytes Store should write.
type Offering struct {
	Descriptor  *manifest.Descriptor
	ArchiveData []byte
}

// Supplier serves Offerings keyed by package name. The best (highest)
// version satisfying a constraint is returned.
type Supplier struct {
	offerings map[string][]Offering
	// AlwaysNotFound, if set, names a package this supplier will refuse
	// to resolve no matter the constraint (spec scenario S6).
	AlwaysNotFound map[string]bool
}

// New returns an empty Supplier.
func New() *Supplier {
	return &Supplier{offerings: make(map[string][]Offering), AlwaysNotFound: make(map[string]bool)}
}

// Offer registers a version of a package as available.
func (s *Supplier) Offer(o Offering) {
	s.offerings[o.Descriptor.Name] = append(s.offerings[o.Descriptor.Name], o)
}

// Manifest implements supplier.Supplier.
func (s *Supplier) Manifest(name string, constraint version.Constraint) (*manifest.Descriptor, error) {
	if s.AlwaysNotFound[name] {
		return nil, &supplier.NotFoundError{Name: name, Constraint: constraint}
	}

	best := s.best(name, constraint)
	if best == nil {
		return nil, &supplier.NotFoundError{Name: name, Constraint: constraint}
	}
	return best.Descriptor, nil
}

// Store implements supplier.Supplier, writing the offering's literal
// archive bytes to destPath.
func (s *Supplier) Store(destPath, name string, constraint version.Constraint) error {
	if s.AlwaysNotFound[name] {
		return &supplier.NotFoundError{Name: name, Constraint: constraint}
	}
	best := s.best(name, constraint)
	if best == nil {
		return &supplier.NotFoundError{Name: name, Constraint: constraint}
	}
	return os.WriteFile(destPath, best.ArchiveData, 0o644)
}

func (s *Supplier) best(name string, constraint version.Constraint) *Offering {
	var best *Offering
	for i := range s.offerings[name] {
		o := &s.offerings[name][i]
		if !constraint.Matches(o.Descriptor.Version) {
			continue
		}
		if best == nil || version.Less(best.Descriptor.Version, o.Descriptor.Version) {
			best = o
		}
	}
	return best
}
