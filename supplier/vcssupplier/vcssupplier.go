// Package vcssupplier implements a Supplier variant that resolves
// manifests and archives directly from a version-control repository,
// using Masterminds/vcs the same way golang-dep's vcs_repo.go does: one
// vcs.Repo per remote, tags treated as candidate versions, UpdateVersion
// to check out a specific tag, and ExportDir to produce a clean copy of
// that tag's tree.
package vcssupplier

import (
	"archive/zip"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"

	"github.com/fabricfw/modkeeper/manifest"
	"github.com/fabricfw/modkeeper/supplier"
	"github.com/fabricfw/modkeeper/version"
)

// Remotes maps a package name to the repository URL Masterminds/vcs
// should clone it from. Supplier has no registry of its own; the remote
// map is the whole of its configuration.
type Remotes map[string]string

// Supplier resolves packages by cloning (or updating a prior clone of)
// their VCS remote into workDir and reading tags as candidate versions.
type Supplier struct {
	Remotes Remotes
	WorkDir string
}

// New returns a Supplier that clones into workDir, a scratch directory
// the caller owns (e.g. <root>/.pkgmgr-cache/vcs).
func New(remotes Remotes, workDir string) *Supplier {
	return &Supplier{Remotes: remotes, WorkDir: workDir}
}

// Manifest implements supplier.Supplier.
func (s *Supplier) Manifest(name string, constraint version.Constraint) (*manifest.Descriptor, error) {
	repo, tag, v, err := s.resolve(name, constraint)
	if err != nil {
		return nil, err
	}
	if err := repo.UpdateVersion(tag); err != nil {
		return nil, &supplier.NetworkError{Name: name, Err: errors.Wrap(err, "vcssupplier: failed to check out tag")}
	}

	exportDir, err := os.MkdirTemp(s.WorkDir, name+"-export-*")
	if err != nil {
		return nil, errors.Wrap(err, "vcssupplier: failed to create export scratch directory")
	}
	defer os.RemoveAll(exportDir)

	if err := repo.ExportDir(exportDir); err != nil {
		return nil, &supplier.NetworkError{Name: name, Err: errors.Wrap(err, "vcssupplier: failed to export checkout")}
	}

	f, err := os.Open(filepath.Join(exportDir, manifest.FileName))
	if err != nil {
		return nil, errors.Wrapf(err, "vcssupplier: %s has no %s at tag %s", name, manifest.FileName, tag)
	}
	defer f.Close()

	d, err := manifest.Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "vcssupplier: invalid manifest for %s at tag %s", name, tag)
	}
	d.Version = v
	return d, nil
}

// Store implements supplier.Supplier: it exports the resolved tag's
// tree and zips it into destPath, wrapped in a single top-level
// directory named name-version so the installer's prefix detection
// behaves the same as it would against a registry-produced archive.
func (s *Supplier) Store(destPath, name string, constraint version.Constraint) error {
	repo, tag, v, err := s.resolve(name, constraint)
	if err != nil {
		return err
	}
	if err := repo.UpdateVersion(tag); err != nil {
		return &supplier.NetworkError{Name: name, Err: errors.Wrap(err, "vcssupplier: failed to check out tag")}
	}

	exportDir, err := os.MkdirTemp(s.WorkDir, name+"-export-*")
	if err != nil {
		return errors.Wrap(err, "vcssupplier: failed to create export scratch directory")
	}
	defer os.RemoveAll(exportDir)

	if err := repo.ExportDir(exportDir); err != nil {
		return &supplier.NetworkError{Name: name, Err: errors.Wrap(err, "vcssupplier: failed to export checkout")}
	}

	prefix := name + "-" + v.String()
	return zipDir(destPath, exportDir, prefix)
}

// resolve clones/updates name's remote if necessary, then picks the
// highest tag satisfying constraint, interpreting each tag as a Version
// (a leading "v" is stripped, matching the common Git tagging
// convention).
func (s *Supplier) resolve(name string, constraint version.Constraint) (vcs.Repo, string, version.Version, error) {
	remote, ok := s.Remotes[name]
	if !ok {
		return nil, "", nil, &supplier.NotFoundError{Name: name, Constraint: constraint}
	}

	localPath := filepath.Join(s.WorkDir, name)
	repo, err := vcs.NewRepo(remote, localPath)
	if err != nil {
		return nil, "", nil, &supplier.NetworkError{Name: name, Err: err}
	}

	if repo.CheckLocal() {
		err = repo.Update()
	} else {
		err = repo.Get()
	}
	if err != nil {
		return nil, "", nil, &supplier.NetworkError{Name: name, Err: errors.Wrap(err, "vcssupplier: failed to sync repository")}
	}

	tags, err := repo.Tags()
	if err != nil {
		return nil, "", nil, &supplier.NetworkError{Name: name, Err: errors.Wrap(err, "vcssupplier: failed to list tags")}
	}

	bestTag, best := bestTagFor(tags, constraint)
	if bestTag == "" {
		return nil, "", nil, &supplier.NotFoundError{Name: name, Constraint: constraint}
	}
	return repo, bestTag, best, nil
}

// bestTagFor picks the highest version among tags that satisfies
// constraint, interpreting each tag as a Version after stripping a
// leading "v" (the common Git tagging convention). Tags that don't
// parse as a Version are silently skipped, not treated as errors: a
// repository may tag non-release points too.
func bestTagFor(tags []string, constraint version.Constraint) (string, version.Version) {
	var bestTag string
	var best version.Version
	for _, tag := range tags {
		v, err := version.Parse(strings.TrimPrefix(tag, "v"))
		if err != nil {
			continue
		}
		if !constraint.Matches(v) {
			continue
		}
		if best == nil || version.Less(best, v) {
			best, bestTag = v, tag
		}
	}
	return bestTag, best
}

// zipDir writes the archive to a sibling ".partial" file and renames it
// onto destPath only once it is complete, so destPath never holds a
// truncated archive.
func zipDir(destPath, dir, prefix string) error {
	partial := destPath + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return errors.Wrapf(err, "vcssupplier: failed to create archive %s", destPath)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		fw, err := w.Create(prefix + "/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		_, err = fw.Write(data)
		return err
	})
	if err != nil {
		w.Close()
		os.Remove(partial)
		return errors.Wrapf(err, "vcssupplier: failed to archive %s", dir)
	}
	if err := w.Close(); err != nil {
		os.Remove(partial)
		return errors.Wrapf(err, "vcssupplier: failed to finish archive %s", destPath)
	}
	if err := os.Rename(partial, destPath); err != nil {
		os.Remove(partial)
		return errors.Wrapf(err, "vcssupplier: failed to move archive into place at %s", destPath)
	}
	return nil
}
