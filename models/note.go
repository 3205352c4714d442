package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Note is the sole entity in the system. The id is assigned at creation and
// immutable afterward — it is the merge key across export/import round-trips.
//
// LastModified is the authoritative "most recent write" marker used for
// merge decisions. UpdatedAt is the user-facing "was this edited" signal and
// stays nil on a freshly created, never-edited note.
type Note struct {
	ID           string     `json:"id"`
	Subject      string     `json:"subject"`
	Content      string     `json:"content"`
	Category     string     `json:"category,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	LastModified time.Time  `json:"lastModified"`
}

// NoteDraft carries the caller-supplied fields for a new note. The store
// assigns id and timestamps.
type NoteDraft struct {
	Subject  string
	Content  string
	Category string
}

// NotePatch carries the fields to change on an existing note. Nil fields are
// left untouched.
type NotePatch struct {
	Subject  *string
	Content  *string
	Category *string
}

// Validate checks the draft before any storage write. Subject and content
// must be non-empty after trimming whitespace.
func (d NoteDraft) Validate() error {
	if strings.TrimSpace(d.Subject) == "" {
		return ErrValidation
	}
	if strings.TrimSpace(d.Content) == "" {
		return ErrValidation
	}
	return nil
}

// MergeTimestamp returns the timestamp that decides precedence during merge:
// lastModified, falling back to updatedAt, falling back to createdAt.
func (n Note) MergeTimestamp() time.Time {
	if !n.LastModified.IsZero() {
		return n.LastModified
	}
	if n.UpdatedAt != nil && !n.UpdatedAt.IsZero() {
		return *n.UpdatedAt
	}
	return n.CreatedAt
}

// UnmarshalJSON accepts both string and numeric ids. Older export files
// carry millisecond-epoch numbers as ids; these are normalized to their
// decimal string form so they remain stable merge keys.
func (n *Note) UnmarshalJSON(data []byte) error {
	type noteAlias Note
	aux := struct {
		ID json.RawMessage `json:"id"`
		*noteAlias
	}{noteAlias: (*noteAlias)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.ID) > 0 {
		var s string
		if err := json.Unmarshal(aux.ID, &s); err == nil {
			n.ID = s
		} else {
			var num json.Number
			if err := json.Unmarshal(aux.ID, &num); err != nil {
				return err
			}
			n.ID = num.String()
		}
	}
	return nil
}

// KnownCategories is the set of category labels the UI offers. Unknown
// values are accepted by the store and shown under DefaultCategory — a
// presentation concern, not a storage invariant.
var KnownCategories = []string{"general", "work", "personal", "ideas", "tasks"}

// DefaultCategory is the display fallback for empty or unknown categories.
const DefaultCategory = "general"

// DisplayCategory maps a stored category value to a known label for display.
func DisplayCategory(category string) string {
	for _, known := range KnownCategories {
		if strings.EqualFold(category, known) {
			return known
		}
	}
	return DefaultCategory
}
