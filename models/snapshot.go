package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion is the transfer format version stamped into every
// encoded snapshot.
const SnapshotVersion = "2.0"

// Origin tags recorded in the snapshot's source field.
const (
	SourceBackup    = "backup"     // full export for safekeeping
	SourceLocalSync = "local_sync" // file exchanged between instances
)

// Snapshot is the self-describing transfer envelope for a note collection.
// The JSON form is the canonical file format; EncodeBinary offers a compact
// msgpack rendering of the same envelope and DecodeSnapshot accepts either.
type Snapshot struct {
	Notes      []Note    `json:"notes"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Source     string    `json:"source"`
	DeviceID   string    `json:"deviceId,omitempty"`
	TotalNotes int       `json:"totalNotes"`
	Checksum   string    `json:"checksum,omitempty"`

	// IntegrityMismatch is set by DecodeSnapshot when the embedded checksum
	// does not match a recomputed digest. Non-fatal: the notes decoded fine
	// structurally, but the file may have been corrupted in transit.
	IntegrityMismatch bool `json:"-" msgpack:"-"`
}

// NewSnapshot builds a snapshot envelope around notes, stamping the current
// time, the format version, and the integrity checksum.
func NewSnapshot(notes []Note, source, deviceID string) *Snapshot {
	if notes == nil {
		notes = []Note{}
	}
	return &Snapshot{
		Notes:      notes,
		Timestamp:  time.Now().UTC(),
		Version:    SnapshotVersion,
		Source:     source,
		DeviceID:   deviceID,
		TotalNotes: len(notes),
		Checksum:   GenerateChecksum(notes),
	}
}

// Encode renders the snapshot as indented JSON, the canonical file format.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, serr.Wrap(err, "failed to encode snapshot")
	}
	return data, nil
}

// EncodeBinary renders the snapshot as msgpack. Roughly a third smaller
// than JSON for typical note bodies; DecodeSnapshot detects the format.
func (s *Snapshot) EncodeBinary() ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, serr.Wrap(err, "failed to encode binary snapshot")
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot from JSON or msgpack bytes. A payload
// that is not well-formed, or whose notes field is missing or not a
// sequence, fails with ErrFormat and zero notes are returned. A checksum
// mismatch does not fail decoding: the snapshot is returned with
// IntegrityMismatch set and a warning is logged for the caller to surface.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, serr.Wrap(ErrFormat, "snapshot payload is empty")
	}

	var snap Snapshot
	if looksLikeJSON(data) {
		if err := decodeJSONSnapshot(data, &snap); err != nil {
			return nil, err
		}
	} else {
		if err := msgpack.Unmarshal(data, &snap); err != nil {
			return nil, serr.Wrap(ErrFormat, "failed to parse binary snapshot: "+err.Error())
		}
		if snap.Notes == nil {
			return nil, serr.Wrap(ErrFormat, "snapshot has no notes field")
		}
	}

	if snap.Checksum != "" {
		if computed := GenerateChecksum(snap.Notes); computed != snap.Checksum {
			snap.IntegrityMismatch = true
			logger.Warn("Snapshot checksum mismatch — file may be corrupted",
				"embedded", snap.Checksum,
				"computed", computed,
			)
		}
	}

	return &snap, nil
}

// looksLikeJSON sniffs the payload format: the JSON envelope always opens
// with an object brace.
func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// decodeJSONSnapshot parses the JSON envelope, distinguishing a missing
// notes field from an empty one.
func decodeJSONSnapshot(data []byte, snap *Snapshot) error {
	var probe struct {
		Notes json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return serr.Wrap(ErrFormat, "failed to parse snapshot: "+err.Error())
	}
	if len(probe.Notes) == 0 || string(probe.Notes) == "null" {
		return serr.Wrap(ErrFormat, "snapshot has no notes field")
	}

	if err := json.Unmarshal(data, snap); err != nil {
		return serr.Wrap(ErrFormat, "snapshot notes are not a valid sequence: "+err.Error())
	}
	if snap.Notes == nil {
		return serr.Wrap(ErrFormat, "snapshot notes are not a sequence")
	}
	return nil
}
