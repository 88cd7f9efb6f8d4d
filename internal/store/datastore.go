package store

// Recorder is the write side of the catalog used by the profile cache. Both
// Store (direct SQLite) and BatchedStore (in-memory buffering) implement it.
type Recorder interface {
	UpsertProfile(p *Profile) error
	ProfileByID(id string) (*Profile, error)
	DeleteProfile(id string) error
}

// Compile-time check: *Store satisfies Recorder.
var _ Recorder = (*Store)(nil)
