// Package ziparchive implements archive.Driver over the standard
// library's archive/zip, the concrete archive format for packages
// fetched through the Supplier interface.
package ziparchive

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/fabricfw/modkeeper/archive"
)

// Driver reads a zip archive opened from a file on disk.
type Driver struct {
	r *zip.ReadCloser
}

// Open opens the zip archive at path. Callers must call Close when done.
func Open(path string) (*Driver, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ziparchive: failed to open %s", path)
	}
	return &Driver{r: r}, nil
}

// Close releases the archive's underlying file handle.
func (d *Driver) Close() error {
	return d.r.Close()
}

// OpenAsDriver adapts Open to the installer's ArchiveOpener shape
// (archive.Driver plus a separate io.Closer), letting the zip format be
// wired in as the Installer's concrete archive backend.
func OpenAsDriver(path string) (archive.Driver, io.Closer, error) {
	d, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	return d, d, nil
}

// Members implements archive.Driver.
func (d *Driver) Members() ([]archive.Member, error) {
	members := make([]archive.Member, 0, len(d.r.File))
	for _, f := range d.r.File {
		kind := archive.File
		p := archive.NormalizePath(f.Name)
		if f.FileInfo().IsDir() || strings.HasSuffix(p, "/") {
			kind = archive.Dir
			p = strings.TrimSuffix(p, "/")
		}
		members = append(members, archive.Member{Path: p, Kind: kind})
	}
	return members, nil
}

// Expand implements archive.Driver.
func (d *Driver) Expand(m archive.Member) ([]byte, error) {
	for _, f := range d.r.File {
		if archive.NormalizePath(strings.TrimSuffix(f.Name, "/")) != m.Path {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "ziparchive: failed to open member %s", m.Path)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrapf(err, "ziparchive: failed to read member %s", m.Path)
		}
		return data, nil
	}
	return nil, errors.Errorf("ziparchive: no such member %s", m.Path)
}
