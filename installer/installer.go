// Package installer implements the Installer and Uninstaller: the
// engine that fetches, unpacks, and journals a package archive, and the
// inverse operation that erases one by replaying its journal.
package installer

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fabricfw/modkeeper/archive"
	"github.com/fabricfw/modkeeper/journal"
	"github.com/fabricfw/modkeeper/supplier"
	"github.com/fabricfw/modkeeper/version"
)

// ErrAlreadyInstalled is returned when the target module directory
// already exists.
type ErrAlreadyInstalled struct{ Name string }

func (e *ErrAlreadyInstalled) Error() string {
	return "installer: " + e.Name + " is already installed"
}

// ErrTempOccupied is returned when the scratch download path is already
// in use by another, presumably stuck, operation.
type ErrTempOccupied struct{ Path string }

func (e *ErrTempOccupied) Error() string {
	return "installer: temp download path already occupied: " + e.Path
}

// ErrArchiveInvalid wraps a failure to open or enumerate a fetched
// archive.
type ErrArchiveInvalid struct {
	Name string
	Err  error
}

func (e *ErrArchiveInvalid) Error() string {
	return errors.Wrapf(e.Err, "installer: archive for %s is invalid", e.Name).Error()
}

func (e *ErrArchiveInvalid) Unwrap() error { return e.Err }

// ErrInstallInterrupted reports that materialization did not complete;
// Journal holds whatever was recorded before the failure, so a
// subsequent Uninstall can clean up the partial result.
type ErrInstallInterrupted struct {
	Name    string
	Journal *journal.Journal
	Err     error
}

func (e *ErrInstallInterrupted) Error() string {
	return errors.Wrapf(e.Err, "installer: install of %s was interrupted", e.Name).Error()
}

func (e *ErrInstallInterrupted) Unwrap() error { return e.Err }

// ArchiveOpener opens a downloaded archive file at path and returns an
// archive.Driver over it, along with a closer for its resources.
type ArchiveOpener func(path string) (archive.Driver, io.Closer, error)

// Installer runs the Download -> Parse -> Find-prefix -> Materialize ->
// Seal sequence for a single package.
type Installer struct {
	Root string
	Src  supplier.Supplier
	Open ArchiveOpener
	Log  *logrus.Logger
}

// Install fetches name at constraint and materializes it beneath
// <Root>/modules/<name>.
func (in *Installer) Install(name string, constraint version.Constraint) error {
	log := in.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	modDir := filepath.Join(in.Root, "modules", name)
	if _, err := os.Stat(modDir); err == nil {
		return &ErrAlreadyInstalled{Name: name}
	}

	tempDir := filepath.Join(in.Root, "temp", "downloads")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return errors.Wrapf(err, "installer: failed to create %s", tempDir)
	}
	tempPath := filepath.Join(tempDir, name+".archive")
	if _, err := os.Stat(tempPath); err == nil {
		return &ErrTempOccupied{Path: tempPath}
	}
	defer os.Remove(tempPath)

	if err := in.Src.Store(tempPath, name, constraint); err != nil {
		return err
	}

	drv, closer, err := in.Open(tempPath)
	if err != nil {
		return &ErrArchiveInvalid{Name: name, Err: err}
	}
	defer closer.Close()

	members, err := drv.Members()
	if err != nil {
		return &ErrArchiveInvalid{Name: name, Err: err}
	}

	prefix := archive.Prefix(members)
	j := journal.New()

	if err := os.MkdirAll(modDir, 0o755); err != nil {
		return errors.Wrapf(err, "installer: failed to create %s", modDir)
	}

	if err := materialize(modDir, prefix, members, drv, j); err != nil {
		return &ErrInstallInterrupted{Name: name, Journal: j, Err: err}
	}

	j.Seal()
	jf, err := os.Create(filepath.Join(modDir, journal.FileName))
	if err != nil {
		return &ErrInstallInterrupted{Name: name, Journal: j, Err: err}
	}
	defer jf.Close()
	if err := journal.Save(jf, j); err != nil {
		return &ErrInstallInterrupted{Name: name, Journal: j, Err: err}
	}
	if err := jf.Sync(); err != nil {
		return &ErrInstallInterrupted{Name: name, Journal: j, Err: err}
	}

	log.WithFields(logrus.Fields{"name": name, "constraint": constraint}).Info("installer: install complete")
	return nil
}

func materialize(modDir, prefix string, members []archive.Member, drv archive.Driver, j *journal.Journal) error {
	for _, m := range members {
		rel := m.Path
		if prefix != "" {
			if !strings.HasPrefix(rel, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(rel, prefix+"/")
		}
		if rel == "" {
			continue
		}

		for _, dirSeg := range parentDirs(rel, m.Kind) {
			if j.Has(journal.Directory, dirSeg) {
				continue
			}
			if err := os.MkdirAll(filepath.Join(modDir, dirSeg), 0o755); err != nil {
				return errors.Wrapf(err, "installer: failed to create directory %s", dirSeg)
			}
			j.Append(journal.Directory, dirSeg)
		}

		if m.Kind == archive.Dir {
			continue
		}

		data, err := drv.Expand(m)
		if err != nil {
			return errors.Wrapf(err, "installer: failed to expand %s", m.Path)
		}
		dest := filepath.Join(modDir, filepath.FromSlash(rel))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return errors.Wrapf(err, "installer: failed to write %s", rel)
		}
		j.Append(journal.RegularFile, rel)
	}
	return nil
}

// parentDirs returns every parent directory segment of rel, shallowest
// first, plus rel itself if m is itself a directory member.
func parentDirs(rel string, kind archive.MemberKind) []string {
	dir := path.Dir(rel)
	var segs []string
	if dir != "." {
		parts := strings.Split(dir, "/")
		cur := ""
		for _, p := range parts {
			if cur == "" {
				cur = p
			} else {
				cur = cur + "/" + p
			}
			segs = append(segs, cur)
		}
	}
	if kind == archive.Dir {
		segs = append(segs, rel)
	}
	return segs
}

// Uninstaller erases an installed package by replaying its journal.
type Uninstaller struct {
	Root string
	Log  *logrus.Logger
}

// ErrNoJournal is returned when the package directory has no journal to
// replay.
type ErrNoJournal struct{ Name string }

func (e *ErrNoJournal) Error() string {
	return "uninstaller: no journal for " + e.Name + ", manual cleanup required"
}

// ErrAlienContents is returned when a directory the journal expects to
// be empty (or the package root itself) contains content the journal
// did not create.
type ErrAlienContents struct{ Path string }

func (e *ErrAlienContents) Error() string {
	return "uninstaller: " + e.Path + " contains content outside the journal, manual cleanup required"
}

// Uninstall replays name's journal: every RegularFile entry is deleted
// (missing files are logged as StrayMissing, not fatal), then every
// Directory entry is removed deepest-first, but only if empty (non-empty
// directories are logged as AlienContents and skipped). Finally the
// package directory itself is removed if empty, or the uninstall fails
// with AlienContents.
func (u *Uninstaller) Uninstall(name string) error {
	log := u.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	modDir := filepath.Join(u.Root, "modules", name)
	jPath := filepath.Join(modDir, journal.FileName)

	jf, err := os.Open(jPath)
	if err != nil {
		return &ErrNoJournal{Name: name}
	}
	j, err := journal.Load(jf)
	jf.Close()
	if err != nil {
		return errors.Wrapf(err, "uninstaller: failed to parse journal for %s", name)
	}

	for _, e := range j.Files() {
		p := filepath.Join(modDir, filepath.FromSlash(e.Path))
		if err := os.Remove(p); err != nil {
			if os.IsNotExist(err) {
				log.WithFields(logrus.Fields{"name": name, "path": e.Path}).
					Warn("uninstaller: journal references a file that no longer exists")
				continue
			}
			return errors.Wrapf(err, "uninstaller: failed to remove %s", e.Path)
		}
	}

	dirs := j.Directories()
	sort.Slice(dirs, func(i, j2 int) bool { return len(dirs[i].Path) > len(dirs[j2].Path) })
	for _, e := range dirs {
		p := filepath.Join(modDir, filepath.FromSlash(e.Path))
		fi, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil || !fi.IsDir() {
			log.WithFields(logrus.Fields{"name": name, "path": e.Path}).
				Warn("uninstaller: expected directory is missing or not a directory")
			continue
		}
		if empty, err := isEmptyDir(p); err != nil {
			return errors.Wrapf(err, "uninstaller: failed to inspect %s", e.Path)
		} else if !empty {
			log.WithFields(logrus.Fields{"name": name, "path": e.Path}).
				Warn("uninstaller: directory contains content the journal did not create")
			continue
		}
		if err := os.Remove(p); err != nil {
			return errors.Wrapf(err, "uninstaller: failed to remove directory %s", e.Path)
		}
	}

	empty, err := isEmptyDir(modDir)
	if err != nil {
		return errors.Wrapf(err, "uninstaller: failed to inspect %s", modDir)
	}
	if !empty {
		return &ErrAlienContents{Path: modDir}
	}
	if err := os.Remove(modDir); err != nil {
		return errors.Wrapf(err, "uninstaller: failed to remove %s", modDir)
	}

	log.WithField("name", name).Info("uninstaller: uninstall complete")
	return nil
}

func isEmptyDir(p string) (bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
