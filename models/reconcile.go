package models

import (
	"sort"
	"time"

	"github.com/rohanthewiz/serr"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Strategy selects how the reconciler resolves same-id divergences between
// two independently mutated collections.
type Strategy string

const (
	// StrategyNewestWins keeps whichever side has the later merge timestamp.
	StrategyNewestWins Strategy = "newest_wins"

	// StrategyMergeAll appends incoming notes that are new to the local
	// collection and never overwrites an existing note.
	StrategyMergeAll Strategy = "merge_all"

	// StrategyManual applies nothing automatically; conflicts are handed
	// back for the user to resolve one by one.
	StrategyManual Strategy = "manual"
)

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s string) bool {
	switch Strategy(s) {
	case StrategyNewestWins, StrategyMergeAll, StrategyManual:
		return true
	}
	return false
}

// DefaultConflictThreshold is the clock-skew tolerance when comparing merge
// timestamps from two machines. Same-id notes whose timestamps differ by
// more than this are reported as a conflict. The value is a heuristic for
// unsynchronized clocks, not a correctness guarantee.
const DefaultConflictThreshold = time.Second

// Conflict records a same-id divergence between the local collection and an
// incoming snapshot. Conflicts are always reported, even when a strategy
// resolves them automatically, so the caller can audit what was overridden.
type Conflict struct {
	ID           string    `json:"id"`
	Local        Note      `json:"local"`
	Incoming     Note      `json:"incoming"`
	LocalTime    time.Time `json:"localTime"`
	IncomingTime time.Time `json:"incomingTime"`
}

// DiffPreview renders a human-readable diff of the conflicting subject and
// content, local side as the base. Used by the manual-resolution screen.
func (c Conflict) DiffPreview() string {
	dmp := diffmatchpatch.New()

	diffs := dmp.DiffMain(
		c.Local.Subject+"\n"+c.Local.Content,
		c.Incoming.Subject+"\n"+c.Incoming.Content,
		false,
	)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}

// MergeStats summarizes an automatic merge.
type MergeStats struct {
	Total     int      `json:"total"`     // notes in the merged collection
	Added     int      `json:"added"`     // notes the merge introduced locally
	Conflicts int      `json:"conflicts"` // conflicts detected (resolved or pending)
	Strategy  Strategy `json:"strategy"`
}

// MergeResult is the candidate merged collection produced by Reconcile.
// The reconciler never touches a store — applying MergedNotes back is the
// caller's explicit, auditable step.
type MergeResult struct {
	MergedNotes              []Note
	Conflicts                []Conflict
	RequiresManualResolution bool
	Stats                    MergeStats
}

// DetectConflicts finds every incoming note whose id exists locally with a
// merge timestamp differing by more than threshold in either direction.
func DetectConflicts(local, incoming []Note, threshold time.Duration) []Conflict {
	if threshold <= 0 {
		threshold = DefaultConflictThreshold
	}

	localByID := make(map[string]Note, len(local))
	for _, n := range local {
		localByID[n.ID] = n
	}

	var conflicts []Conflict
	for _, in := range incoming {
		loc, ok := localByID[in.ID]
		if !ok {
			continue
		}
		localTime := loc.MergeTimestamp()
		incomingTime := in.MergeTimestamp()

		diff := localTime.Sub(incomingTime)
		if diff < 0 {
			diff = -diff
		}
		if diff > threshold {
			conflicts = append(conflicts, Conflict{
				ID:           in.ID,
				Local:        loc,
				Incoming:     in,
				LocalTime:    localTime,
				IncomingTime: incomingTime,
			})
		}
	}
	return conflicts
}

// Reconcile computes a unified collection from the local collection and an
// incoming one, under the given strategy. Notes present only locally are
// never removed — which also means a note deleted locally reappears if the
// incoming snapshot still carries it. Deletions leave no tombstone; this is
// a known limitation of the format, not an oversight.
//
// For automatic strategies the result is re-sorted by createdAt descending.
// For StrategyManual the local collection is returned untouched together
// with the conflict list; nothing is merged for conflicting ids until the
// caller resolves them.
func Reconcile(local, incoming []Note, strategy Strategy, threshold time.Duration) (*MergeResult, error) {
	if !ValidStrategy(string(strategy)) {
		return nil, serr.Wrap(ErrValidation, "unknown merge strategy: "+string(strategy))
	}

	conflicts := DetectConflicts(local, incoming, threshold)

	merged := make([]Note, len(local))
	copy(merged, local)

	localByID := make(map[string]Note, len(local))
	for _, n := range local {
		localByID[n.ID] = n
	}

	switch strategy {
	case StrategyNewestWins:
		for _, in := range incoming {
			loc, ok := localByID[in.ID]
			if !ok {
				merged = append(merged, in)
				continue
			}
			if in.MergeTimestamp().After(loc.MergeTimestamp()) {
				for i := range merged {
					if merged[i].ID == in.ID {
						merged[i] = in
						break
					}
				}
			}
		}

	case StrategyMergeAll:
		for _, in := range incoming {
			if _, ok := localByID[in.ID]; !ok {
				merged = append(merged, in)
			}
		}

	case StrategyManual:
		return &MergeResult{
			MergedNotes:              merged,
			Conflicts:                conflicts,
			RequiresManualResolution: true,
			Stats: MergeStats{
				Total:     len(merged),
				Conflicts: len(conflicts),
				Strategy:  strategy,
			},
		}, nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	return &MergeResult{
		MergedNotes: merged,
		Conflicts:   conflicts,
		Stats: MergeStats{
			Total:     len(merged),
			Added:     len(merged) - len(local),
			Conflicts: len(conflicts),
			Strategy:  strategy,
		},
	}, nil
}

// ConflictChoice names which side of a conflict the user picked.
type ConflictChoice string

const (
	ChoiceLocal    ConflictChoice = "local"
	ChoiceIncoming ConflictChoice = "incoming"
)

// ConflictQueue tracks the conflicts still awaiting manual resolution.
// Resolving returns the winning record but does not apply it anywhere —
// writing the winner back to a store stays the caller's explicit step.
type ConflictQueue struct {
	pending []Conflict
	winners map[string]Note
}

// NewConflictQueue builds a resolution queue over the given conflicts.
func NewConflictQueue(conflicts []Conflict) *ConflictQueue {
	pending := make([]Conflict, len(conflicts))
	copy(pending, conflicts)
	return &ConflictQueue{pending: pending, winners: make(map[string]Note)}
}

// Pending returns the conflicts not yet resolved.
func (q *ConflictQueue) Pending() []Conflict {
	return q.pending
}

// Done reports whether every conflict has been resolved.
func (q *ConflictQueue) Done() bool {
	return len(q.pending) == 0
}

// Resolve removes the conflict with the given id from the queue and returns
// the record the choice selected. done is true once the queue is empty.
// Resolving an id that is not pending fails with ErrNotFound.
func (q *ConflictQueue) Resolve(id string, choice ConflictChoice) (winner Note, done bool, err error) {
	for i, c := range q.pending {
		if c.ID != id {
			continue
		}

		switch choice {
		case ChoiceLocal:
			winner = c.Local
		case ChoiceIncoming:
			winner = c.Incoming
		default:
			return Note{}, false, serr.Wrap(ErrValidation, "unknown conflict choice: "+string(choice))
		}

		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		q.winners[id] = winner
		return winner, len(q.pending) == 0, nil
	}

	return Note{}, false, serr.Wrap(ErrNotFound, "no pending conflict for id "+id)
}

// Winners returns the records chosen so far, keyed by note id.
func (q *ConflictQueue) Winners() map[string]Note {
	return q.winners
}

// FinishManualMerge builds the final collection once every conflict has a
// chosen winner: local records stay unless a winner replaces them,
// incoming-only notes merge in, and the result is sorted newest-created
// first like the automatic strategies produce.
func FinishManualMerge(local, incoming []Note, winners map[string]Note) []Note {
	localByID := make(map[string]Note, len(local))
	for _, n := range local {
		localByID[n.ID] = n
	}

	merged := make([]Note, 0, len(local)+len(incoming))
	for _, n := range local {
		if w, ok := winners[n.ID]; ok {
			merged = append(merged, w)
			continue
		}
		merged = append(merged, n)
	}
	for _, in := range incoming {
		if _, ok := localByID[in.ID]; !ok {
			merged = append(merged, in)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
