// Package appctx resolves the ambient configuration the rest of the
// module needs to operate: the application root directory and the
// directory a Supplier cache may use for its own on-disk state. The
// resolution order (explicit argument, then environment variable, then
// the working directory) follows the same shape as golang-dep's own
// NewContext GOPATH resolution.
package appctx

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Environment variable names recognized when an explicit value isn't
// supplied.
const (
	RootEnvVar      = "PKGMGR_ROOT"
	CacheDirEnvVar  = "PKGMGR_CACHE_DIR"
	defaultCacheDir = ".pkgmgr-cache"
)

// Context is the resolved ambient configuration for a single run.
type Context struct {
	Root     string
	CacheDir string
}

// New resolves a Context. root and cacheDir may be supplied explicitly
// (e.g. from CLI flags); an empty string falls back to the
// corresponding environment variable, and finally to a computed
// default: the current working directory for Root, and
// "<Root>/.pkgmgr-cache" for CacheDir.
func New(root, cacheDir string) (*Context, error) {
	if root == "" {
		root = os.Getenv(RootEnvVar)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "appctx: failed to determine working directory")
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "appctx: failed to resolve root %q", root)
	}

	if cacheDir == "" {
		cacheDir = os.Getenv(CacheDirEnvVar)
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(root, defaultCacheDir)
	}

	return &Context{Root: root, CacheDir: cacheDir}, nil
}
