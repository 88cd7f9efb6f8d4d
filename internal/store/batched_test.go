package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pscompat/internal/profile/profiletest"
)

func TestBatchedStore_BuffersUntilCommit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := NewBatchedStore(s)

	require.NoError(t, b.UpsertProfile(Summarize("a.json", profiletest.Sample("a"), time.Now())))
	require.NoError(t, b.UpsertProfile(Summarize("b.json", profiletest.Sample("b"), time.Now())))
	assert.Equal(t, 2, b.Len())

	got, err := s.ProfileByID("a")
	require.NoError(t, err)
	assert.Nil(t, got, "nothing is written before commit")

	buffered, err := b.ProfileByID("a")
	require.NoError(t, err)
	require.NotNil(t, buffered)
	assert.Equal(t, "a.json", buffered.Path)

	require.NoError(t, s.CommitBatch(b))
	assert.Zero(t, b.Len())

	all, err := s.Profiles("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBatchedStore_LatestRecordWins(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := NewBatchedStore(s)

	require.NoError(t, b.UpsertProfile(Summarize("old.json", profiletest.Sample("a"), time.Now())))
	require.NoError(t, b.UpsertProfile(Summarize("new.json", profiletest.Sample("a"), time.Now())))

	buffered, err := b.ProfileByID("a")
	require.NoError(t, err)
	assert.Equal(t, "new.json", buffered.Path)

	require.NoError(t, s.CommitBatch(b))
	got, err := s.ProfileByID("a")
	require.NoError(t, err)
	assert.Equal(t, "new.json", got.Path)
}

func TestBatchedStore_FallsThroughToStore(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.UpsertProfile(Summarize("a.json", profiletest.Sample("a"), time.Now())))

	b := NewBatchedStore(s)
	got, err := b.ProfileByID("a")
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = b.ProfileByID("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, s.CommitBatch(b), "empty commit is a no-op")
}

func TestBatchedStore_DeleteProfile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.UpsertProfile(Summarize("a.json", profiletest.Sample("a"), time.Now())))

	b := NewBatchedStore(s)
	require.NoError(t, b.UpsertProfile(Summarize("a2.json", profiletest.Sample("a"), time.Now())))
	require.NoError(t, b.UpsertProfile(Summarize("b.json", profiletest.Sample("b"), time.Now())))
	require.NoError(t, b.DeleteProfile("a"))
	assert.Equal(t, 1, b.Len(), "buffered records for the id are dropped")

	got, err := s.ProfileByID("a")
	require.NoError(t, err)
	assert.Nil(t, got, "deleted from the database without a commit")

	require.NoError(t, s.CommitBatch(b))
	got, err = s.ProfileByID("a")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.ProfileByID("b")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
