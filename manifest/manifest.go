// Package manifest holds the in-memory form of a package descriptor (the
// contents of a package.json, whether for the application or an installed
// module) and the JSON codec for it.
package manifest

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/fabricfw/modkeeper/version"
)

// FileName is the manifest's standard on-disk name, both for the
// application root and for each installed module directory.
const FileName = "package.json"

// Descriptor is the in-memory form of a manifest: a package's declared
// identity, version, and dependencies. Unknown manifest keys are ignored
// on read and never round-tripped.
type Descriptor struct {
	Name         string
	Version      version.Version
	Dependencies map[string]version.Constraint

	// SourceRoot is the filesystem path the descriptor was loaded from,
	// or empty if the descriptor did not come from disk (e.g. it was
	// fabricated by a Supplier for a package still in transit).
	SourceRoot string
}

// rawDescriptor mirrors the recognized JSON keys from the manifest
// grammar (spec.md §6): name, version, and an optional dependencies map
// of name to constraint string. Any other key is ignored by
// encoding/json's default decoding behavior.
type rawDescriptor struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Read decodes a Descriptor from r. name and version are required; a
// missing or unparsable value for either is an error. dependencies is
// optional.
func Read(r io.Reader) (*Descriptor, error) {
	var raw rawDescriptor
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "manifest: failed to decode package.json")
	}

	if raw.Name == "" {
		return nil, errors.New("manifest: missing required \"name\"")
	}
	if raw.Version == "" {
		return nil, errors.New("manifest: missing required \"version\"")
	}

	v, err := version.Parse(raw.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest: invalid version for %q", raw.Name)
	}

	deps := make(map[string]version.Constraint, len(raw.Dependencies))
	for name, constraintStr := range raw.Dependencies {
		c, err := version.ParseConstraint(constraintStr)
		if err != nil {
			return nil, errors.Wrapf(err, "manifest: invalid constraint for dependency %q of %q", name, raw.Name)
		}
		deps[name] = c
	}

	return &Descriptor{
		Name:         raw.Name,
		Version:      v,
		Dependencies: deps,
	}, nil
}

// Write encodes d to w in the manifest's recognized JSON form.
func Write(w io.Writer, d *Descriptor) error {
	raw := rawDescriptor{
		Name:         d.Name,
		Version:      d.Version.String(),
		Dependencies: make(map[string]string, len(d.Dependencies)),
	}
	for name, c := range d.Dependencies {
		raw.Dependencies[name] = c.String()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return errors.Wrap(err, "manifest: failed to encode package.json")
	}
	return nil
}
