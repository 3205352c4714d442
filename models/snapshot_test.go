package models_test

import (
	"strings"
	"testing"
	"time"

	"notesync/models"
)

// wireNote builds a note with explicit timestamps for codec tests.
func wireNote(id, subject, content string, created time.Time) models.Note {
	return models.Note{
		ID:           id,
		Subject:      subject,
		Content:      content,
		Category:     "work",
		CreatedAt:    created,
		LastModified: created,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	notes := []models.Note{
		wireNote("a", "Alpha", "first body", base),
		wireNote("b", "Beta", "second body", base.Add(time.Hour)),
	}
	updated := base.Add(2 * time.Hour)
	notes[1].UpdatedAt = &updated
	notes[1].LastModified = updated

	snap := models.NewSnapshot(notes, models.SourceBackup, "device_test")
	if snap.Version != models.SnapshotVersion {
		t.Errorf("version = %q, want %q", snap.Version, models.SnapshotVersion)
	}
	if snap.TotalNotes != 2 {
		t.Errorf("totalNotes = %d, want 2", snap.TotalNotes)
	}
	if snap.Checksum == "" {
		t.Error("expected a checksum on a fresh snapshot")
	}

	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := models.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.IntegrityMismatch {
		t.Error("round-trip must not flag an integrity mismatch")
	}
	if len(decoded.Notes) != 2 {
		t.Fatalf("decoded %d notes, want 2", len(decoded.Notes))
	}

	for i, want := range notes {
		got := decoded.Notes[i]
		if got.ID != want.ID || got.Subject != want.Subject || got.Content != want.Content {
			t.Errorf("note %d fields changed: got %+v", i, got)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) || !got.LastModified.Equal(want.LastModified) {
			t.Errorf("note %d timestamps changed across round-trip", i)
		}
	}
	if decoded.Notes[0].UpdatedAt != nil {
		t.Error("absent updatedAt must stay absent across round-trip")
	}
	if decoded.Notes[1].UpdatedAt == nil || !decoded.Notes[1].UpdatedAt.Equal(updated) {
		t.Error("present updatedAt must survive round-trip")
	}
}

func TestSnapshotBinaryRoundTrip(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := models.NewSnapshot([]models.Note{
		wireNote("bin-1", "Binary", "compact body", base),
	}, models.SourceLocalSync, "device_bin")

	data, err := snap.EncodeBinary()
	if err != nil {
		t.Fatalf("binary encode failed: %v", err)
	}

	decoded, err := models.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("binary decode failed: %v", err)
	}
	if decoded.IntegrityMismatch {
		t.Error("binary round-trip must not flag an integrity mismatch")
	}
	if len(decoded.Notes) != 1 || decoded.Notes[0].ID != "bin-1" {
		t.Errorf("binary decode lost notes: %+v", decoded.Notes)
	}
	if decoded.Source != models.SourceLocalSync {
		t.Errorf("source = %q, want %q", decoded.Source, models.SourceLocalSync)
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"not json":         "certainly not a snapshot",
		"truncated object": `{"notes": [`,
		"missing notes":    `{"timestamp": "2026-01-01T00:00:00Z", "version": "2.0"}`,
		"null notes":       `{"notes": null}`,
		"notes not array":  `{"notes": "nope"}`,
	}

	for name, payload := range cases {
		if _, err := models.DecodeSnapshot([]byte(payload)); !models.IsFormat(err) {
			t.Errorf("%s: expected format error, got %v", name, err)
		}
	}
}

func TestDecodeFlagsChecksumMismatch(t *testing.T) {
	base := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	snap := models.NewSnapshot([]models.Note{
		wireNote("c-1", "Checked", "body", base),
	}, models.SourceLocalSync, "")

	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// Corrupt the subject without updating the embedded checksum
	tampered := strings.Replace(string(data), "Checked", "Altered", 1)

	decoded, err := models.DecodeSnapshot([]byte(tampered))
	if err != nil {
		t.Fatalf("mismatch must not fail decoding, got %v", err)
	}
	if !decoded.IntegrityMismatch {
		t.Error("expected IntegrityMismatch to be flagged")
	}
	if len(decoded.Notes) != 1 {
		t.Errorf("notes must still decode on mismatch, got %d", len(decoded.Notes))
	}
}

func TestDecodeWithoutChecksumIsClean(t *testing.T) {
	payload := `{
		"notes": [{"id": "x", "subject": "S", "content": "C",
		           "createdAt": "2026-01-01T00:00:00Z",
		           "lastModified": "2026-01-01T00:00:00Z"}],
		"timestamp": "2026-01-01T00:00:00Z",
		"version": "2.0",
		"source": "local_sync",
		"totalNotes": 1
	}`

	decoded, err := models.DecodeSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.IntegrityMismatch {
		t.Error("missing checksum must not be treated as a mismatch")
	}
}

func TestDecodeAcceptsNumericIds(t *testing.T) {
	payload := `{
		"notes": [{"id": 1712345678901, "subject": "Legacy", "content": "old export",
		           "createdAt": "2024-04-05T12:00:00.000Z",
		           "lastModified": "2024-04-05T12:30:00.000Z"}],
		"timestamp": "2024-04-05T13:00:00Z",
		"version": "2.0",
		"source": "local_sync",
		"totalNotes": 1
	}`

	decoded, err := models.DecodeSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Notes[0].ID != "1712345678901" {
		t.Errorf("numeric id not normalized to string, got %q", decoded.Notes[0].ID)
	}
}

func TestGenerateChecksumIsDeterministic(t *testing.T) {
	base := time.Date(2026, 7, 7, 7, 7, 7, 0, time.UTC)
	notes := []models.Note{
		wireNote("d-1", "One", "b1", base),
		wireNote("d-2", "Two", "b2", base.Add(time.Minute)),
	}

	first := models.GenerateChecksum(notes)
	second := models.GenerateChecksum(notes)
	if first == "" {
		t.Fatal("checksum should not be empty")
	}
	if first != second {
		t.Errorf("checksum not deterministic: %q vs %q", first, second)
	}

	// Content changes are invisible to the digest projection; subject
	// changes are not.
	notes[0].Subject = "Different"
	if models.GenerateChecksum(notes) == first {
		t.Error("checksum should change when a subject changes")
	}
}
