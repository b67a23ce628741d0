// Package supplier defines the Package Supplier interface the resolver
// and installer consume: the one external collaborator that knows how
// to turn a (name, constraint) query into a manifest or a stored
// archive. Concrete variants (registry-backed, local-filesystem-backed,
// VCS-backed, or a test double) live in subpackages or test files;
// this package only fixes the contract and its error kinds.
package supplier

import (
	"github.com/fabricfw/modkeeper/manifest"
	"github.com/fabricfw/modkeeper/version"
)

// Supplier resolves package manifests and fetches package archives. All
// three variants named in the external-interfaces contract
// (registry-backed, local-filesystem-backed, test-double) implement the
// same interface; the resolver and installer are agnostic to which.
type Supplier interface {
	// Manifest returns the best descriptor satisfying constraint for
	// name. Fails with a *NotFoundError or *NetworkError.
	Manifest(name string, constraint version.Constraint) (*manifest.Descriptor, error)

	// Store writes the archive bytes for the version Manifest would
	// select to destPath, atomically: destPath either ends up holding
	// the complete archive, or does not exist at all. Fails with a
	// *NotFoundError or *NetworkError.
	Store(destPath, name string, constraint version.Constraint) error
}

// NotFoundError indicates no version of name satisfies constraint, or
// name is unknown to the supplier entirely.
type NotFoundError struct {
	Name       string
	Constraint version.Constraint
}

func (e *NotFoundError) Error() string {
	return "supplier: no version of " + e.Name + " satisfies " + e.Constraint.String()
}

// NetworkError wraps a transport-level failure talking to the supplier.
type NetworkError struct {
	Name string
	Err  error
}

func (e *NetworkError) Error() string {
	return "supplier: network error fetching " + e.Name + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }
