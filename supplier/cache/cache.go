// Package cache memoizes Supplier manifest lookups in a BoltDB file on
// disk, one top-level bucket per package name (the same
// bucket-per-source layout golang-dep's own boltCache uses, scoped here
// to names instead of source URLs since the resolver only ever queries
// by package name).
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/fabricfw/modkeeper/manifest"
	"github.com/fabricfw/modkeeper/supplier"
	"github.com/fabricfw/modkeeper/version"
)

// manifestsBucket is the sole sub-bucket nested under every package's
// top-level bucket; its keys are constraint strings, its values the
// JSON-encoded resolved descriptor.
var manifestsBucket = []byte("manifests")

// DefaultTTL is the cache entry lifetime used when Open is given a
// non-positive ttl. A resolved manifest rarely changes meaning within a
// single working session, but a long-lived cache directory shouldn't
// serve an arbitrarily stale answer forever.
const DefaultTTL = 15 * time.Minute

// Cache wraps a Supplier, memoizing Manifest lookups in a BoltDB file.
// Store is passed straight through: archive bytes are not cached, since
// they're only ever read once per install. An entry older than ttl is
// treated as a miss and re-fetched from the wrapped Supplier.
type Cache struct {
	inner supplier.Supplier
	db    *bolt.DB
	ttl   time.Duration
}

// Open opens (creating if necessary) a BoltDB cache file beneath dir,
// wrapping inner. A ttl of zero or less uses DefaultTTL.
func Open(dir string, inner supplier.Supplier, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cache: failed to create cache directory %s", dir)
	}
	path := filepath.Join(dir, "supplier-cache.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "cache: failed to open %s", path)
	}
	return &Cache{inner: inner, db: db, ttl: ttl}, nil
}

// Close releases the underlying BoltDB file handle.
func (c *Cache) Close() error {
	return errors.Wrap(c.db.Close(), "cache: failed to close cache file")
}

// Manifest returns a memoized result for (name, constraint) if one was
// previously cached, otherwise delegates to the wrapped Supplier and
// caches the result before returning it. Errors from the wrapped
// Supplier are never cached.
func (c *Cache) Manifest(name string, constraint version.Constraint) (*manifest.Descriptor, error) {
	key := []byte(constraint.String())

	if cached, ok, err := c.lookup(name, key); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	d, err := c.inner.Manifest(name, constraint)
	if err != nil {
		return nil, err
	}
	if err := c.store(name, key, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Store delegates directly to the wrapped Supplier.
func (c *Cache) Store(destPath, name string, constraint version.Constraint) error {
	return c.inner.Store(destPath, name, constraint)
}

func (c *Cache) lookup(name string, key []byte) (*manifest.Descriptor, bool, error) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		top := tx.Bucket([]byte(name))
		if top == nil {
			return nil
		}
		manifests := top.Bucket(manifestsBucket)
		if manifests == nil {
			return nil
		}
		if v := manifests.Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "cache: failed to read cache for %s", name)
	}
	if data == nil {
		return nil, false, nil
	}

	var raw rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, errors.Wrapf(err, "cache: failed to decode cached entry for %s", name)
	}
	if time.Since(time.Unix(raw.FetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	d, err := raw.toDescriptor()
	if err != nil {
		return nil, false, errors.Wrapf(err, "cache: failed to rehydrate cached entry for %s", name)
	}
	return d, true, nil
}

func (c *Cache) store(name string, key []byte, d *manifest.Descriptor) error {
	data, err := json.Marshal(fromDescriptor(d, time.Now()))
	if err != nil {
		return errors.Wrapf(err, "cache: failed to encode entry for %s", name)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		top, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		manifests, err := top.CreateBucketIfNotExists(manifestsBucket)
		if err != nil {
			return err
		}
		return manifests.Put(key, data)
	})
}

// rawDescriptor is the cache's own wire form, decoupled from
// manifest.Descriptor's JSON tags (which belong to package.json, not the
// cache), deliberately using the Version/Constraint string forms since
// version.Version and version.Constraint carry no exported fields to
// marshal directly. FetchedAt is a Unix second timestamp, checked against
// the Cache's ttl on lookup so an entry can go stale without an explicit
// eviction pass.
type rawDescriptor struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	FetchedAt    int64             `json:"fetched_at"`
}

func fromDescriptor(d *manifest.Descriptor, fetchedAt time.Time) rawDescriptor {
	raw := rawDescriptor{
		Name:         d.Name,
		Version:      d.Version.String(),
		Dependencies: make(map[string]string, len(d.Dependencies)),
		FetchedAt:    fetchedAt.Unix(),
	}
	for name, c := range d.Dependencies {
		raw.Dependencies[name] = c.String()
	}
	return raw
}

func (raw rawDescriptor) toDescriptor() (*manifest.Descriptor, error) {
	v, err := version.Parse(raw.Version)
	if err != nil {
		return nil, err
	}
	deps := make(map[string]version.Constraint, len(raw.Dependencies))
	for name, cs := range raw.Dependencies {
		c, err := version.ParseConstraint(cs)
		if err != nil {
			return nil, err
		}
		deps[name] = c
	}
	return &manifest.Descriptor{Name: raw.Name, Version: v, Dependencies: deps}, nil
}
