package store

import (
	"slices"
	"sync"
)

// BatchedStore buffers profile records in memory so that a burst of loads
// can be committed in one transaction. It implements Recorder, so the
// cache can write to it without knowing whether it is hitting SQLite or a
// buffer.
//
// Thread safety: the mutex protects the buffer. Reads pass through to the
// underlying Store.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	// Profiles holds buffered records, latest last.
	Profiles []Profile
}

// Compile-time check: *BatchedStore satisfies Recorder.
var _ Recorder = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s}
}

// UpsertProfile buffers a copy of p.
func (b *BatchedStore) UpsertProfile(p *Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *p
	cp.Constituents = append([]string(nil), p.Constituents...)
	b.Profiles = append(b.Profiles, cp)
	return nil
}

// ProfileByID returns the latest buffered record for id, falling back to
// the database.
func (b *BatchedStore) ProfileByID(id string) (*Profile, error) {
	b.mu.Lock()
	for i := len(b.Profiles) - 1; i >= 0; i-- {
		if b.Profiles[i].ID == id {
			p := b.Profiles[i]
			b.mu.Unlock()
			return &p, nil
		}
	}
	b.mu.Unlock()
	return b.store.ProfileByID(id)
}

// Len returns the number of buffered records.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Profiles)
}

// DeleteProfile drops any buffered records for id and deletes it from the
// database straight away.
func (b *BatchedStore) DeleteProfile(id string) error {
	b.mu.Lock()
	b.Profiles = slices.DeleteFunc(b.Profiles, func(p Profile) bool { return p.ID == id })
	b.mu.Unlock()
	return b.store.DeleteProfile(id)
}
