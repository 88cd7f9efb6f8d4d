package pscompat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"

	"github.com/jward/pscompat/internal/codec"
	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/query"
	"github.com/jward/pscompat/internal/store"
)

// DefaultUnionPattern matches the file names of union profiles.
const DefaultUnionPattern = "union_*.json"

// UnionID returns the id of the union of the given profile ids. Each id is
// read as little-endian 32-bit words of its UTF-8 bytes, the last one
// zero-padded, and all words of all distinct ids are summed modulo 2^32.
// The result does not depend on the order of ids.
func UnionID(ids []string) string {
	var sum uint32
	for _, id := range profile.SortedIDs(ids) {
		sum += idWord(id)
	}
	return fmt.Sprintf("union_%08x", sum)
}

func idWord(id string) uint32 {
	var sum uint32
	b := []byte(id)
	for len(b) > 0 {
		var chunk [4]byte
		n := copy(chunk[:], b)
		b = b[n:]
		sum += binary.LittleEndian.Uint32(chunk[:])
	}
	return sum
}

// GetOrBuildUnion returns the union of every profile in dir whose file
// name does not match exclude, a doublestar pattern; an empty exclude means
// DefaultUnionPattern.
//
// A union file already in dir is reused only when its id and constituents
// match the current profiles. Otherwise it is deleted, rebuilt, and the
// new union is written back in the background; see Wait.
//
// Concurrent callers share one build. The build is not bound to any
// caller's ctx: a caller whose ctx ends gets ctx.Err() while the build
// carries on for the others.
func (c *Cache) GetOrBuildUnion(ctx context.Context, dir, exclude string) (*Profile, error) {
	if exclude == "" {
		exclude = DefaultUnionPattern
	}
	if !doublestar.ValidatePattern(exclude) {
		return nil, &profile.ParseError{Input: exclude, Reason: "invalid exclude pattern"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := c.key(dir)
	if err != nil {
		return nil, err
	}

	ch := c.builds.DoChan(key+"\x00"+exclude, func() (any, error) {
		c.writes.Add(1)
		defer c.writes.Done()
		return c.buildUnion(context.WithoutCancel(ctx), dir, exclude)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Profile), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) buildUnion(ctx context.Context, dir, exclude string) (*Profile, error) {
	paths, err := profilePaths(dir, exclude)
	if err != nil {
		return nil, err
	}

	rec, commit := c.batch()
	defer commit()

	loaded, err := c.loadAll(ctx, paths, rec)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(loaded))
	datas := make([]*profile.Data, len(loaded))
	for i, p := range loaded {
		ids[i] = p.Data.ID
		datas[i] = p.Data
	}
	unionID := UnionID(ids)
	unionPath := filepath.Join(dir, unionID+".json")

	p, ok, err := c.cachedUnion(ctx, rec, unionPath, unionID, ids)
	if err != nil {
		return nil, err
	}
	if ok {
		c.logger.Debug("union cache hit", "id", unionID, "path", unionPath)
		return p, nil
	}

	c.logger.Info("building union", "id", unionID, "constituents", len(ids))
	d := c.merge(datas, unionID)
	d.ID = unionID
	d.ConstituentIDs = profile.SortedIDs(ids)
	d.Platform = nil
	if d.SchemaVersion == "" {
		d.SchemaVersion = profile.SchemaVersion
	}

	p = &Profile{Path: unionPath, Data: d, View: query.New(d)}
	if key, err := c.key(unionPath); err == nil {
		done := &call{done: make(chan struct{}), p: p}
		close(done.done)
		c.entries.Store(key, done)
	}
	c.record(rec, unionPath, d)
	c.persist(unionPath, d)
	return p, nil
}

// batch returns the recorder a union build writes through and a func that
// flushes it. A SQLite catalog is buffered so that the burst of records
// from one build lands in a single transaction.
func (c *Cache) batch() (store.Recorder, func()) {
	s, ok := c.catalog.(*store.Store)
	if !ok {
		return c.catalog, func() {}
	}
	b := store.NewBatchedStore(s)
	return b, func() {
		n := b.Len()
		if err := s.CommitBatch(b); err != nil {
			c.logger.Warn("catalog batch failed", "records", n, "err", err)
			return
		}
		c.logger.Debug("catalog batch committed", "records", n)
	}
}

// profilePaths lists the profile files of dir in name order.
func profilePaths(dir, exclude string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &profile.NotFoundError{Path: dir}
	}
	if err != nil {
		return nil, &profile.IOError{Op: "read dir", Path: dir, Err: err}
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		if ok, _ := doublestar.Match(exclude, name); ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// cachedUnion returns the union at path if it is the union of ids. A union
// file that is unreadable as a profile or describes other constituents is
// deleted, along with its catalog record. Any other failure is returned
// and the file is left alone.
func (c *Cache) cachedUnion(ctx context.Context, rec store.Recorder, path, unionID string, ids []string) (*Profile, bool, error) {
	if key, err := c.key(path); err == nil {
		if v, ok := c.entries.Load(key); ok {
			cl := v.(*call)
			select {
			case <-cl.done:
				if cl.err == nil && cl.p.Data.ID == unionID && profile.SameIDSet(cl.p.Data.ConstituentIDs, ids) {
					return cl.p, true, nil
				}
			default:
			}
		}
	}

	id, err := codec.PeekFileID(c.open, path)
	var nf *profile.NotFoundError
	if errors.As(err, &nf) {
		return nil, false, nil
	}
	if err == nil && id != unionID {
		err = &profile.ValidationError{Path: path, Reason: fmt.Sprintf("id is %q, want %q", id, unionID)}
	}
	var p *Profile
	if err == nil {
		p, err = c.load(ctx, path, rec)
	}
	if err == nil && !profile.SameIDSet(p.Data.ConstituentIDs, ids) {
		err = &profile.ValidationError{Path: path, Reason: "constituents differ"}
	}
	if err == nil {
		return p, true, nil
	}
	if !isStale(err) {
		return nil, false, err
	}

	c.logger.Info("discarding stale union", "path", path, "err", err)
	c.Forget(path)
	if id == "" {
		id = unionID
	}
	c.unrecord(rec, id)
	if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		c.logger.Warn("remove stale union failed", "path", path, "err", rmErr)
	}
	return nil, false, nil
}

// isStale reports whether err says the union file itself is bad, as opposed
// to the read being interrupted.
func isStale(err error) bool {
	var pe *profile.ParseError
	var ve *profile.ValidationError
	return errors.As(err, &pe) || errors.As(err, &ve)
}

// persist writes d to path in the background under a file lock shared with
// other processes. Failures are logged; the in-memory union stays valid.
func (c *Cache) persist(path string, d *profile.Data) {
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		if err := writeLocked(path, d); err != nil {
			c.logger.Warn("persist union failed", "path", path, "err", err)
			return
		}
		c.logger.Debug("union written", "path", path)
	}()
}

func writeLocked(path string, d *profile.Data) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return &profile.IOError{Op: "lock", Path: path, Err: err}
	}
	defer lock.Unlock()
	return codec.WriteFile(path, d)
}
