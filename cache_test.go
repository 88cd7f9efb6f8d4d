package pscompat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pscompat/internal/codec"
	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/profile/profiletest"
	"github.com/jward/pscompat/internal/store"
)

// countingOpener counts how often each file is opened.
type countingOpener struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingOpener() *countingOpener {
	return &countingOpener{counts: make(map[string]int)}
}

func (o *countingOpener) open(path string) (io.ReadCloser, error) {
	o.mu.Lock()
	o.counts[filepath.Base(path)]++
	o.mu.Unlock()
	return codec.OpenFile(path)
}

func (o *countingOpener) count(name string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[name]
}

// writeProfile writes the sample profile for id into dir as <id>.json.
func writeProfile(t *testing.T, dir, id string) string {
	t.Helper()
	path := filepath.Join(dir, id+".json")
	require.NoError(t, codec.WriteFile(path, profiletest.Sample(id)))
	return path
}

func TestCache_ConcurrentLoadReadsOnce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProfile(t, dir, "profileA")

	opener := newCountingOpener()
	c := NewCache(WithFileOpener(opener.open))

	const n = 32
	got := make([]*Profile, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Load(context.Background(), path)
			assert.NoError(t, err)
			got[i] = p
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opener.count("profileA.json"))
	require.NotNil(t, got[0])
	for _, p := range got {
		assert.Same(t, got[0], p)
	}
	assert.Equal(t, "profileA", got[0].ID())
}

func TestCache_SequentialLoadReadsOnce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProfile(t, dir, "p")

	opener := newCountingOpener()
	c := NewCache(WithFileOpener(opener.open))

	first, err := c.Load(context.Background(), path)
	require.NoError(t, err)
	// A relative spelling of the same file shares the entry.
	second, err := c.Load(context.Background(), dir+string(filepath.Separator)+"."+string(filepath.Separator)+"p.json")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, opener.count("p.json"))

	cmd, ok := first.Runtime().Commands().Lookup("gci")
	require.True(t, ok)
	assert.Equal(t, "Get-ChildItem", cmd.Name)
}

func TestCache_FailedLoadIsRetried(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "late.json")

	opener := newCountingOpener()
	c := NewCache(WithFileOpener(opener.open))

	_, err := c.Load(context.Background(), path)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)

	writeProfile(t, dir, "late")
	p, err := c.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "late", p.ID())
	assert.Equal(t, 2, opener.count("late.json"))
}

func TestCache_ParseErrorSurfaces(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := NewCache()
	_, err := c.Load(context.Background(), path)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, path, pe.Path)
}

func TestCache_CaseInsensitivePaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProfile(t, dir, "mixed")
	upper := filepath.Join(dir, "MIXED.JSON")

	folded := NewCache(WithCaseInsensitivePaths(true))
	a, err := folded.Load(context.Background(), path)
	require.NoError(t, err)
	b, err := folded.Load(context.Background(), upper)
	require.NoError(t, err, "served from the entry of the other spelling")
	assert.Same(t, a, b)

	exact := NewCache(WithCaseInsensitivePaths(false))
	_, err = exact.Load(context.Background(), path)
	require.NoError(t, err)
	if _, statErr := os.Stat(upper); statErr != nil {
		_, err = exact.Load(context.Background(), upper)
		assert.Error(t, err, "a different key on a case-sensitive filesystem")
	}
}

func TestCache_ForgetAndClear(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProfile(t, dir, "p")

	opener := newCountingOpener()
	c := NewCache(WithFileOpener(opener.open))
	ctx := context.Background()

	first, err := c.Load(ctx, path)
	require.NoError(t, err)

	c.Forget(path)
	second, err := c.Load(ctx, path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	c.Clear()
	_, err = c.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, opener.count("p.json"))
}

func TestCache_LoadAll(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := []string{
		writeProfile(t, dir, "c"),
		writeProfile(t, dir, "a"),
		writeProfile(t, dir, "b"),
	}

	c := NewCache(WithWorkers(2))
	got, err := c.LoadAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID())
	assert.Equal(t, "a", got[1].ID())
	assert.Equal(t, "b", got[2].ID())

	_, err = c.LoadAll(context.Background(), append(paths, filepath.Join(dir, "missing.json")))
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)
}

func TestCache_CanceledContext(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProfile(t, dir, "p")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opener := newCountingOpener()
	c := NewCache(WithFileOpener(opener.open))
	_, err := c.Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, opener.count("p.json"))
}

func TestCache_RecordsInCatalog(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProfile(t, dir, "linux")

	catalog, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)

	c := NewCache(WithCatalog(catalog))
	_, err = c.Load(context.Background(), path)
	require.NoError(t, err)

	rec, err := catalog.ProfileByID("linux")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, path, rec.Path)
	assert.Equal(t, profile.OSFamilyLinux.String(), rec.OSFamily)

	require.NoError(t, c.Close())
}

// failingRecorder rejects every write.
type failingRecorder struct{ calls atomic.Int32 }

func (f *failingRecorder) UpsertProfile(*store.Profile) error {
	f.calls.Add(1)
	return errors.New("disk full")
}

func (f *failingRecorder) ProfileByID(string) (*store.Profile, error) { return nil, nil }

func (f *failingRecorder) DeleteProfile(string) error { return errors.New("disk full") }

func TestCache_CatalogFailureDoesNotFailLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProfile(t, dir, "p")

	rec := &failingRecorder{}
	c := NewCache(WithCatalog(rec))
	_, err := c.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int32(1), rec.calls.Load())
	assert.NoError(t, c.Close())
}
