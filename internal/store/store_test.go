package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/profile/profiletest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestProfile summarizes the sample profile under id and records it.
func insertTestProfile(t *testing.T, s *Store, id string, family profile.OSFamily) *Profile {
	t.Helper()
	d := profiletest.Sample(id)
	d.Platform.OperatingSystem.Family = family
	p := Summarize(filepath.Join("profiles", id+".json"), d, time.Now().Truncate(time.Second))
	require.NoError(t, s.UpsertProfile(p))
	return p
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"profiles", "constituents"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestOpen(t *testing.T) {
	t.Parallel()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ProfileByID("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// Summaries
// =============================================================================

func TestSummarize(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p := Summarize("a.json", profiletest.Sample("linux"), now)
	assert.Equal(t, "linux", p.ID)
	assert.Equal(t, "a.json", p.Path)
	assert.Equal(t, "Linux", p.OSFamily)
	assert.Equal(t, "Ubuntu 20.04", p.OSName)
	assert.Equal(t, "X64", p.Architecture)
	assert.Equal(t, "7.2.1", p.PSVersion)
	assert.Equal(t, "Core", p.PSEdition)
	assert.Equal(t, "Core", p.DotnetRuntime)
	assert.False(t, p.Union)
	assert.Equal(t, 1, p.ModuleCount)
	assert.Equal(t, 2, p.CommandCount)
	assert.Equal(t, 3, p.TypeCount)
	assert.Nil(t, p.Constituents)
}

func TestSummarize_Union(t *testing.T) {
	t.Parallel()

	d := &profile.Data{ID: "union_1", ConstituentIDs: []string{"b", "a", "b"}}
	p := Summarize("u.json", d, time.Now())
	assert.True(t, p.Union)
	assert.Equal(t, []string{"a", "b"}, p.Constituents)
	assert.Empty(t, p.OSFamily)
}

// =============================================================================
// Profiles
// =============================================================================

func TestUpsertProfile_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	want := insertTestProfile(t, s, "linux", profile.OSFamilyLinux)
	got, err := s.ProfileByID("linux")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Path, got.Path)
	assert.Equal(t, want.OSFamily, got.OSFamily)
	assert.Equal(t, want.PSVersion, got.PSVersion)
	assert.Equal(t, want.CommandCount, got.CommandCount)
	assert.True(t, want.LoadedAt.Equal(got.LoadedAt))
}

func TestUpsertProfile_Replaces(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	insertTestProfile(t, s, "p", profile.OSFamilyLinux)
	insertTestProfile(t, s, "p", profile.OSFamilyWindows)

	all, err := s.Profiles("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Windows", all[0].OSFamily)
}

func TestProfiles_FamilyFilter(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	insertTestProfile(t, s, "ubuntu", profile.OSFamilyLinux)
	insertTestProfile(t, s, "win10", profile.OSFamilyWindows)
	insertTestProfile(t, s, "alpine", profile.OSFamilyLinux)

	linux, err := s.Profiles("linux")
	require.NoError(t, err)
	ids := make([]string, len(linux))
	for i, p := range linux {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"alpine", "ubuntu"}, ids)

	none, err := s.Profiles("MacOS")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConstituents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	insertTestProfile(t, s, "a", profile.OSFamilyLinux)
	u := Summarize("u.json", &profile.Data{ID: "union_x", ConstituentIDs: []string{"b", "a"}}, time.Now())
	require.NoError(t, s.UpsertProfile(u))

	ids, err := s.Constituents("union_x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	got, err := s.ProfileByID("union_x")
	require.NoError(t, err)
	assert.True(t, got.Union)
	assert.Equal(t, []string{"a", "b"}, got.Constituents)

	unions, err := s.UnionsContaining("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"union_x"}, unions)

	// A rebuilt union replaces the old constituent set.
	u.Constituents = []string{"c"}
	require.NoError(t, s.UpsertProfile(u))
	ids, err = s.Constituents("union_x")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)

	require.NoError(t, s.DeleteProfile("union_x"))
	ids, err = s.Constituents("union_x")
	require.NoError(t, err)
	assert.Empty(t, ids)
	got, err = s.ProfileByID("union_x")
	require.NoError(t, err)
	assert.Nil(t, got)
}
