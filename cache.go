package pscompat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"github.com/jward/pscompat/internal/codec"
	"github.com/jward/pscompat/internal/merge"
	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/query"
	"github.com/jward/pscompat/internal/store"
)

// Profile is a loaded profile: the raw record and its query view.
type Profile struct {
	Path string
	Data *profile.Data
	View *query.Profile
}

// ID returns the profile id.
func (p *Profile) ID() string { return p.Data.ID }

// Runtime returns the runtime view of the profile.
func (p *Profile) Runtime() *query.Runtime { return p.View.Runtime() }

// MergeFunc builds a union profile from its constituents.
type MergeFunc func(profiles []*profile.Data, unionID string) *profile.Data

// Cache loads profile files at most once per path and builds union
// profiles over directories of them.
//
// A Cache is safe for concurrent use. Failed loads are not cached: every
// caller waiting on the failed attempt gets its error, and the next call
// tries again.
type Cache struct {
	logger    *slog.Logger
	open      codec.Opener
	merge     MergeFunc
	catalog   store.Recorder
	workers   int
	foldPaths bool

	entries sync.Map // cache key -> *call
	builds  singleflight.Group
	writes  sync.WaitGroup
}

// call is one load of one path. done is closed once p or err is set.
type call struct {
	done chan struct{}
	p    *Profile
	err  error
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithMerge replaces the function used to build union profiles.
func WithMerge(m MergeFunc) Option {
	return func(c *Cache) { c.merge = m }
}

// WithCatalog records every loaded or built profile in r. The cache owns r
// from then on and closes it on Close when it is an io.Closer.
func WithCatalog(r store.Recorder) Option {
	return func(c *Cache) { c.catalog = r }
}

// WithFileOpener replaces the function used to open profile files.
func WithFileOpener(open codec.Opener) Option {
	return func(c *Cache) { c.open = open }
}

// WithWorkers bounds the number of files LoadAll reads at once.
func WithWorkers(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCaseInsensitivePaths controls whether paths differing only in case
// share a cache entry. The default follows the host: case-insensitive on
// Windows and macOS.
func WithCaseInsensitivePaths(fold bool) Option {
	return func(c *Cache) { c.foldPaths = fold }
}

// NewCache creates an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		logger:    slog.New(slog.DiscardHandler),
		open:      codec.OpenFile,
		merge:     merge.Profiles,
		workers:   runtime.GOMAXPROCS(0),
		foldPaths: runtime.GOOS == "windows" || runtime.GOOS == "darwin",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &profile.IOError{Op: "resolve", Path: path, Err: err}
	}
	if c.foldPaths {
		return strings.ToLower(abs), nil
	}
	return abs, nil
}

// Load returns the profile at path, reading it on first request. Concurrent
// and later callers for the same path share one read and get the same
// *Profile.
func (c *Cache) Load(ctx context.Context, path string) (*Profile, error) {
	return c.load(ctx, path, c.catalog)
}

// load is Load recording a first read through rec.
func (c *Cache) load(ctx context.Context, path string, rec store.Recorder) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := c.key(path)
	if err != nil {
		return nil, err
	}

	cl := &call{done: make(chan struct{})}
	if v, loaded := c.entries.LoadOrStore(key, cl); loaded {
		cl = v.(*call)
	} else {
		c.run(key, path, cl, rec)
	}

	select {
	case <-cl.done:
		return cl.p, cl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) run(key, path string, cl *call, rec store.Recorder) {
	defer close(cl.done)

	d, err := codec.ReadFileWith(c.open, path)
	if err != nil {
		cl.err = err
		c.entries.CompareAndDelete(key, cl)
		c.logger.Debug("profile load failed", "path", path, "err", err)
		return
	}
	cl.p = &Profile{Path: path, Data: d, View: query.New(d)}
	c.logger.Debug("profile loaded", "path", path, "id", d.ID)
	c.record(rec, path, d)
}

func (c *Cache) record(rec store.Recorder, path string, d *profile.Data) {
	if rec == nil {
		return
	}
	if err := rec.UpsertProfile(store.Summarize(path, d, time.Now())); err != nil {
		c.logger.Warn("catalog update failed", "id", d.ID, "err", err)
	}
}

func (c *Cache) unrecord(rec store.Recorder, id string) {
	if rec == nil {
		return
	}
	if err := rec.DeleteProfile(id); err != nil {
		c.logger.Warn("catalog delete failed", "id", id, "err", err)
	}
}

// LoadAll loads every path, at most WithWorkers at a time, and returns the
// profiles in the order of paths. It fails if any load fails.
func (c *Cache) LoadAll(ctx context.Context, paths []string) ([]*Profile, error) {
	return c.loadAll(ctx, paths, c.catalog)
}

func (c *Cache) loadAll(ctx context.Context, paths []string, rec store.Recorder) ([]*Profile, error) {
	out := make([]*Profile, len(paths))
	errs := make([]error, len(paths))

	p := pool.New().WithMaxGoroutines(c.workers)
	for i, path := range paths {
		p.Go(func() {
			out[i], errs[i] = c.load(ctx, path, rec)
		})
	}
	p.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("pscompat: load %s: %w", paths[i], err)
		}
	}
	return out, nil
}

// Forget drops the cached entry for path, so the next Load reads it again.
func (c *Cache) Forget(path string) {
	if key, err := c.key(path); err == nil {
		c.entries.Delete(key)
	}
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.entries.Clear()
}

// Wait blocks until every pending union build and write has finished.
func (c *Cache) Wait() {
	c.writes.Wait()
}

// Close waits for pending writes and closes the catalog.
func (c *Cache) Close() error {
	c.Wait()
	if closer, ok := c.catalog.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
