// Package appview reads the root application and its currently installed
// modules from the local filesystem, and computes the include-path lists
// the application build needs. State is always re-materialized from disk;
// nothing here is cached across calls to Load.
package appview

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fabricfw/modkeeper/manifest"
)

// ModulesDir, SourceDir, ViewsDir, and TempDownloadsDir name the fixed
// on-disk layout beneath an application's root (spec.md §6).
const (
	ModulesDir       = "modules"
	SourceDir        = "source"
	ViewsDir         = "views"
	TempDownloadsDir = "temp/downloads"
)

// ErrConfig wraps a missing or invalid root package.json, per the
// ConfigError kind in the error taxonomy (spec.md §7).
type ErrConfig struct {
	Root string
	Err  error
}

func (e *ErrConfig) Error() string {
	return errors.Wrapf(e.Err, "appview: invalid application manifest at %s", filepath.Join(e.Root, manifest.FileName)).Error()
}

func (e *ErrConfig) Unwrap() error { return e.Err }

// ErrDuplicateInstalled is returned when two installed module directories
// declare the same package name in their manifests.
type ErrDuplicateInstalled struct {
	Name string
	Dirs []string
}

func (e *ErrDuplicateInstalled) Error() string {
	return "appview: package " + e.Name + " is declared by multiple installed modules: " + filepath.Join(e.Dirs...)
}

// State is a point-in-time view of an application directory: its own
// manifest, plus every module currently installed beneath modules/.
type State struct {
	Root      string
	Main      *manifest.Descriptor
	Installed map[string]*manifest.Descriptor
}

// Load re-scans root and returns a fresh State. This is the reinit()
// contract from spec.md §4.5: every call drops any prior in-memory view
// and rebuilds it from the filesystem.
func Load(root string, log *logrus.Logger) (*State, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	mainPath := filepath.Join(root, manifest.FileName)
	f, err := os.Open(mainPath)
	if err != nil {
		return nil, &ErrConfig{Root: root, Err: err}
	}
	defer f.Close()

	main, err := manifest.Read(f)
	if err != nil {
		return nil, &ErrConfig{Root: root, Err: err}
	}
	main.SourceRoot = root

	installed, err := scanInstalled(root, log)
	if err != nil {
		return nil, err
	}

	return &State{Root: root, Main: main, Installed: installed}, nil
}

func scanInstalled(root string, log *logrus.Logger) (map[string]*manifest.Descriptor, error) {
	modulesPath := filepath.Join(root, ModulesDir)
	entries, err := os.ReadDir(modulesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*manifest.Descriptor{}, nil
		}
		return nil, errors.Wrapf(err, "appview: failed to read %s", modulesPath)
	}

	installed := make(map[string]*manifest.Descriptor, len(entries))
	dirOf := make(map[string]string, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(modulesPath, entry.Name())
		mpath := filepath.Join(dir, manifest.FileName)

		f, err := os.Open(mpath)
		if err != nil {
			log.WithFields(logrus.Fields{"module": entry.Name(), "error": err}).
				Warn("appview: skipping installed module with unreadable manifest")
			continue
		}
		d, err := manifest.Read(f)
		f.Close()
		if err != nil {
			log.WithFields(logrus.Fields{"module": entry.Name(), "error": err}).
				Warn("appview: skipping installed module with invalid manifest")
			continue
		}
		d.SourceRoot = dir

		if prev, exists := dirOf[d.Name]; exists {
			return nil, &ErrDuplicateInstalled{Name: d.Name, Dirs: []string{prev, dir}}
		}
		dirOf[d.Name] = dir
		installed[d.Name] = d
	}

	return installed, nil
}

// IncludePaths returns the build include-path list for the given leaf
// directory name ("source" or "views"): one entry per installed module
// that has a <module>/<leaf> directory, in sorted-by-name order for
// determinism, followed by the application's own root/<leaf> last, if it
// exists.
func (s *State) IncludePaths(leaf string) []string {
	names := make([]string, 0, len(s.Installed))
	for name := range s.Installed {
		names = append(names, name)
	}
	sort.Strings(names)

	var paths []string
	for _, name := range names {
		p := filepath.Join(s.Root, ModulesDir, name, leaf)
		if isDir(p) {
			paths = append(paths, p)
		}
	}

	own := filepath.Join(s.Root, leaf)
	if isDir(own) {
		paths = append(paths, own)
	}
	return paths
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
