package models

import (
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// ImportStats reports the outcome of absorbing a snapshot into the store.
// Imported + Updated + Skipped == Total for a fully processed snapshot.
type ImportStats struct {
	Imported int `json:"imported"` // ids new to the store, inserted
	Updated  int `json:"updated"`  // existing ids overwritten by a newer incoming record
	Skipped  int `json:"skipped"`  // existing ids whose incoming record was not newer
	Total    int `json:"total"`    // notes present in the snapshot
}

// ImportSnapshot absorbs a decoded snapshot into the store with a
// per-record newest-wins policy:
//
//   - incoming id absent from the store        -> insert
//   - incoming merge timestamp strictly newer  -> overwrite in place
//   - otherwise                                -> discard incoming
//
// Each note's decision is independent; the operation can partially succeed
// by design (some applied, others skipped) — it is not an all-or-nothing
// transaction. Readers never observe an intermediate state: the whole
// absorb runs inside the store's write lock. A disk failure stops the
// import and returns the stats accumulated so far along with the error.
func (s *Store) ImportSnapshot(snap *Snapshot) (ImportStats, error) {
	stats := ImportStats{Total: len(snap.Notes)}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, incoming := range snap.Notes {
		if incoming.ID == "" {
			logger.Info("Skipping snapshot note without an id", "subject", incoming.Subject)
			stats.Skipped++
			continue
		}

		existing, ok := s.view[incoming.ID]
		if !ok {
			if err := s.insertLocked(incoming); err != nil {
				return stats, serr.Wrap(err, "import failed inserting note "+incoming.ID)
			}
			stats.Imported++
			continue
		}

		if incoming.MergeTimestamp().After(existing.MergeTimestamp()) {
			if err := s.updateLocked(incoming); err != nil {
				return stats, serr.Wrap(err, "import failed updating note "+incoming.ID)
			}
			stats.Updated++
		} else {
			stats.Skipped++
		}
	}

	if stats.Imported+stats.Updated > 0 {
		s.touchLastWrite(s.now())
	}

	logger.Info("Snapshot import complete",
		"imported", stats.Imported,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"total", stats.Total,
	)
	return stats, nil
}
