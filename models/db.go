package models

import (
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Store is the durable keyed collection of notes. It pairs a disk DuckDB
// database (durability) with an in-memory view (fast reads). Every write
// goes to disk first, then updates the view; merge application swaps the
// whole view at once so readers observe either the pre-merge or the fully
// merged collection, never an interleaving.
//
// A Store is an explicit handle — construct with OpenStore and inject it
// into consumers. All mutations are serialized through the store's mutex:
// one mutation is visible at a time.
type Store struct {
	db *sql.DB // disk persistence

	mu    sync.RWMutex
	view  map[string]Note // live in-memory view keyed by id
	order []string        // ids in insertion order, for stable sort ties

	kv  KV // optional; receives the last-local-write marker
	now func() time.Time
}

// dateSearchLayout is the calendar-date display format matched by date
// search, day first.
const dateSearchLayout = "02/01/2006"

// SearchField selects which note field a search term is matched against.
type SearchField string

const (
	FieldSubject SearchField = "subject"
	FieldContent SearchField = "content"
	FieldDate    SearchField = "date"
)

// lastWriteKey is where the store publishes its last successful write time
// on the key-value surface.
const lastWriteKey = "notes_last_write"

const ddlCreateNotesSequence = `
CREATE SEQUENCE IF NOT EXISTS notes_seq START 1;
`

const ddlCreateNotesTable = `
CREATE TABLE IF NOT EXISTS notes (
    seq           BIGINT DEFAULT nextval('notes_seq'),
    id            VARCHAR PRIMARY KEY,
    subject       VARCHAR NOT NULL,
    content       VARCHAR NOT NULL,
    category      VARCHAR,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP,
    last_modified TIMESTAMP NOT NULL
);
`

// OpenStore opens (creating if necessary) the note database at path and
// loads the in-memory view. Opening an already-initialized database is a
// no-op beyond loading. kv may be nil; when present it receives the
// last-local-write marker on every successful mutation.
func OpenStore(path string, kv KV) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, serr.Wrap(ErrStorageUnavailable, "failed to open note database: "+err.Error())
	}

	// duckdb defers connection establishment; force it so a bad path
	// surfaces here rather than on the first query
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, serr.Wrap(ErrStorageUnavailable, "failed to reach note database: "+err.Error())
	}

	for _, ddl := range []string{ddlCreateNotesSequence, ddlCreateNotesTable} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, serr.Wrap(ErrStorageUnavailable, "failed to migrate note database: "+err.Error())
		}
	}

	s := &Store{
		db:   db,
		view: make(map[string]Note),
		kv:   kv,
		// DuckDB timestamps carry microsecond precision; truncating here
		// keeps the in-memory view identical to what a reload would see.
		now: func() time.Time { return time.Now().Truncate(time.Microsecond) },
	}

	if err := s.loadView(); err != nil {
		db.Close()
		return nil, serr.Wrap(err, "failed to load notes into memory")
	}

	logger.Info("Note store opened", "path", path, "notes", len(s.view))
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// loadView reads every note from disk into the in-memory view, preserving
// insertion order via the seq column.
func (s *Store) loadView() error {
	rows, err := s.db.Query(`
		SELECT id, subject, content, category, created_at, updated_at, last_modified
		FROM notes
		ORDER BY seq ASC
	`)
	if err != nil {
		return serr.Wrap(err, "failed to read notes from disk")
	}
	defer rows.Close()

	for rows.Next() {
		var n Note
		var category sql.NullString
		var updatedAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.Subject, &n.Content, &category,
			&n.CreatedAt, &updatedAt, &n.LastModified); err != nil {
			return serr.Wrap(err, "failed to scan note")
		}
		if category.Valid {
			n.Category = category.String
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			n.UpdatedAt = &t
		}
		s.view[n.ID] = n
		s.order = append(s.order, n.ID)
	}
	return rows.Err()
}

// List returns all notes ordered by createdAt descending, newest first.
// Notes with equal createdAt keep their insertion order.
func (s *Store) List() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// sortedLocked builds the createdAt-descending listing. Callers hold mu.
func (s *Store) sortedLocked() []Note {
	notes := make([]Note, 0, len(s.order))
	for _, id := range s.order {
		notes = append(notes, s.view[id])
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes
}

// Get returns the note with the given id, if present.
func (s *Store) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.view[id]
	return n, ok
}

// Count returns the number of stored notes.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.view)
}

// Add validates the draft, assigns a fresh id and timestamps, and persists
// the note. Returns the stored note. Retrying a failed Add creates a new
// identity — it never deduplicates.
func (s *Store) Add(draft NoteDraft) (Note, error) {
	if err := draft.Validate(); err != nil {
		return Note{}, serr.Wrap(err, "subject and content are required")
	}

	now := s.now()
	n := Note{
		ID:           uuid.NewString(),
		Subject:      strings.TrimSpace(draft.Subject),
		Content:      draft.Content,
		Category:     draft.Category,
		CreatedAt:    now,
		LastModified: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.insertLocked(n); err != nil {
		return Note{}, err
	}
	s.touchLastWrite(now)

	return n, nil
}

// Update merges the patch over the existing note. The id and original
// createdAt are preserved; updatedAt and lastModified are refreshed.
func (s *Store) Update(id string, patch NotePatch) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.view[id]
	if !ok {
		return Note{}, serr.Wrap(ErrNotFound, "cannot update note "+id)
	}

	if patch.Subject != nil {
		if strings.TrimSpace(*patch.Subject) == "" {
			return Note{}, serr.Wrap(ErrValidation, "subject must not be empty")
		}
		n.Subject = strings.TrimSpace(*patch.Subject)
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return Note{}, serr.Wrap(ErrValidation, "content must not be empty")
		}
		n.Content = *patch.Content
	}
	if patch.Category != nil {
		n.Category = *patch.Category
	}

	now := s.now()
	n.UpdatedAt = &now
	n.LastModified = now

	if err := s.updateLocked(n); err != nil {
		return Note{}, err
	}
	s.touchLastWrite(now)

	return n, nil
}

// Delete removes the note with the given id. Idempotent: deleting a
// non-existent id is not an error and reports false.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.view[id]; !ok {
		return false, nil
	}

	if _, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return false, serr.Wrap(err, "failed to delete note from disk")
	}

	delete(s.view, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.touchLastWrite(s.now())

	return true, nil
}

// Search returns notes whose field matches term, newest first. Subject and
// content matching is a case-insensitive substring test; date matching
// compares against the calendar date of createdAt. An empty term returns
// all notes.
func (s *Store) Search(term string, field SearchField) ([]Note, error) {
	switch field {
	case FieldSubject, FieldContent, FieldDate:
	default:
		return nil, serr.Wrap(ErrValidation, "unknown search field: "+string(field))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedLocked()
	if term == "" {
		return all, nil
	}

	needle := strings.ToLower(term)
	var results []Note
	for _, n := range all {
		var haystack string
		switch field {
		case FieldSubject:
			haystack = strings.ToLower(n.Subject)
		case FieldContent:
			haystack = strings.ToLower(n.Content)
		case FieldDate:
			haystack = n.CreatedAt.Format(dateSearchLayout)
		}
		if strings.Contains(haystack, needle) {
			results = append(results, n)
		}
	}
	return results, nil
}

// Clear removes every note. The last-write marker is touched so sync state
// sees the mutation.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM notes`); err != nil {
		return serr.Wrap(err, "failed to clear notes")
	}

	s.view = make(map[string]Note)
	s.order = nil
	s.touchLastWrite(s.now())

	logger.Info("All notes removed from store")
	return nil
}

// ReplaceAll swaps the entire collection for the given notes in one atomic
// step: the disk change happens in a single transaction and the in-memory
// view is exchanged only after it commits. Used to apply a merged collection
// produced by the reconciler.
//
// The transaction diffs against the current view rather than clearing the
// table: DuckDB rejects a delete+reinsert of the same primary key inside one
// transaction, so surviving ids are updated in place, new ids inserted, and
// only vanished ids deleted.
func (s *Store) ReplaceAll(notes []Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return serr.Wrap(err, "failed to begin replace transaction")
	}
	defer tx.Rollback()

	keep := make(map[string]bool, len(notes))
	for _, n := range notes {
		keep[n.ID] = true

		var query string
		if _, exists := s.view[n.ID]; exists {
			query = `UPDATE notes
				 SET subject = ?, content = ?, category = ?, created_at = ?, updated_at = ?, last_modified = ?
				 WHERE id = ?`
		} else {
			query = `INSERT INTO notes (subject, content, category, created_at, updated_at, last_modified, id)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`
		}
		if _, err := tx.Exec(query,
			n.Subject, n.Content, nullString(n.Category),
			n.CreatedAt, nullTime(n.UpdatedAt), n.LastModified, n.ID,
		); err != nil {
			return serr.Wrap(err, "failed to write note "+n.ID+" during replace")
		}
	}
	for id := range s.view {
		if keep[id] {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
			return serr.Wrap(err, "failed to remove note "+id+" during replace")
		}
	}
	if err := tx.Commit(); err != nil {
		return serr.Wrap(err, "failed to commit replace transaction")
	}

	view := make(map[string]Note, len(notes))
	order := make([]string, 0, len(notes))
	for _, n := range notes {
		view[n.ID] = n
		order = append(order, n.ID)
	}
	s.view = view
	s.order = order
	s.touchLastWrite(s.now())

	return nil
}

// insertLocked writes a new note to disk, then to the view. Callers hold mu.
func (s *Store) insertLocked(n Note) error {
	_, err := s.db.Exec(
		`INSERT INTO notes (id, subject, content, category, created_at, updated_at, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Subject, n.Content, nullString(n.Category),
		n.CreatedAt, nullTime(n.UpdatedAt), n.LastModified,
	)
	if err != nil {
		return serr.Wrap(err, "failed to write note to disk")
	}

	s.view[n.ID] = n
	s.order = append(s.order, n.ID)
	return nil
}

// updateLocked overwrites an existing note on disk, then in the view.
// Callers hold mu.
func (s *Store) updateLocked(n Note) error {
	_, err := s.db.Exec(
		`UPDATE notes
		 SET subject = ?, content = ?, category = ?, created_at = ?, updated_at = ?, last_modified = ?
		 WHERE id = ?`,
		n.Subject, n.Content, nullString(n.Category),
		n.CreatedAt, nullTime(n.UpdatedAt), n.LastModified, n.ID,
	)
	if err != nil {
		return serr.Wrap(err, "failed to update note on disk")
	}

	s.view[n.ID] = n
	return nil
}

// touchLastWrite publishes the last-local-write marker. Marker failures are
// logged, never propagated — state bookkeeping must not block a committed
// write.
func (s *Store) touchLastWrite(t time.Time) {
	if s.kv == nil {
		return
	}
	if err := s.kv.Set(lastWriteKey, t.UTC().Format(time.RFC3339Nano)); err != nil {
		logger.LogErr(err, "failed to record last write marker")
	}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
