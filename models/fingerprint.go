package models

import (
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash"
)

// Fingerprint digests the whole collection into a single value so two
// instances can detect divergence without comparing every record. The input
// is order-insensitive: notes are hashed as sorted "id|lastModified" lines,
// so two collections with the same records in any order fingerprint equally.
func Fingerprint(notes []Note) uint64 {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.ID+"|"+n.LastModified.UTC().Format(time.RFC3339Nano))
	}
	sort.Strings(lines)

	h := xxhash.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

// FingerprintString renders the collection fingerprint in hex for storage
// on the key-value surface.
func FingerprintString(notes []Note) string {
	return strconv.FormatUint(Fingerprint(notes), 16)
}
