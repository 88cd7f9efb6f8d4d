package store

import "fmt"

// CommitBatch writes every record buffered in batch within a single
// transaction and empties the buffer. Records are applied in the order they
// were buffered, so the latest record for an id wins.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()
	if len(batch.Profiles) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for i := range batch.Profiles {
		if err := upsertProfileTx(tx, &batch.Profiles[i]); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	batch.Profiles = nil
	return nil
}
