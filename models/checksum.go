package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// checksumProjection is the normalized per-note projection the integrity
// digest covers. Only identity, title, and the merge marker participate so
// the digest is cheap and stable across cosmetic field reordering.
type checksumProjection struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	LastModified string `json:"lastModified"`
}

// GenerateChecksum produces the snapshot integrity digest: a 32-bit rolling
// hash over the JSON projection of (id, subject, lastModified), rendered in
// base 36. This detects accidental corruption of a snapshot file, not
// tampering — it is not a cryptographic hash and must not be treated as one.
func GenerateChecksum(notes []Note) string {
	projections := make([]checksumProjection, 0, len(notes))
	for _, n := range notes {
		projections = append(projections, checksumProjection{
			ID:           n.ID,
			Subject:      n.Subject,
			LastModified: n.LastModified.UTC().Format(time.RFC3339Nano),
		})
	}

	data, err := json.Marshal(projections)
	if err != nil {
		// Marshaling plain strings cannot fail; keep the signature simple.
		return ""
	}

	var hash int32
	for _, b := range data {
		hash = (hash << 5) - hash + int32(b)
	}
	return strconv.FormatInt(int64(hash), 36)
}
