package models_test

import (
	"testing"
	"time"

	"notesync/models"
)

// importSnap wraps notes in a minimal snapshot envelope for import tests.
func importSnap(notes ...models.Note) *models.Snapshot {
	return models.NewSnapshot(notes, models.SourceLocalSync, "device_remote")
}

func TestImportInsertsUnknownIds(t *testing.T) {
	store, _, cleanup := setupTestStore(t, "test_import_insert")
	defer cleanup()

	base := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	stats, err := store.ImportSnapshot(importSnap(
		wireNote("in-1", "Incoming one", "body", base),
		wireNote("in-2", "Incoming two", "body", base.Add(time.Minute)),
	))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if stats.Imported != 2 || stats.Updated != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 2 imported", stats)
	}
	if stats.Imported+stats.Updated+stats.Skipped != stats.Total {
		t.Error("stats must sum to total")
	}
	if store.Count() != 2 {
		t.Errorf("store holds %d notes, want 2", store.Count())
	}
}

func TestImportNewestWinsPerRecord(t *testing.T) {
	store, _, cleanup := setupTestStore(t, "test_import_lww")
	defer cleanup()

	existing := addTestNote(t, store, "Local subject", "local body")

	// Strictly newer incoming note with the same id overwrites in place
	newer := existing
	newer.Subject = "Remote subject"
	newer.Content = "remote body"
	newer.LastModified = existing.LastModified.Add(5 * time.Second)

	stats, err := store.ImportSnapshot(importSnap(newer))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Updated != 1 || stats.Imported != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 1 updated", stats)
	}

	got, _ := store.Get(existing.ID)
	if got.Subject != "Remote subject" || got.Content != "remote body" {
		t.Errorf("newer incoming note did not overwrite: %+v", got)
	}

	// Older incoming note is discarded
	older := existing
	older.Subject = "Stale subject"
	older.LastModified = existing.LastModified.Add(-time.Hour)

	stats, err = store.ImportSnapshot(importSnap(older))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Skipped != 1 || stats.Updated != 0 {
		t.Errorf("stats = %+v, want 1 skipped", stats)
	}

	got, _ = store.Get(existing.ID)
	if got.Subject != "Remote subject" {
		t.Errorf("stale incoming note overwrote a newer record: %q", got.Subject)
	}
}

func TestImportEqualTimestampKeepsExisting(t *testing.T) {
	store, _, cleanup := setupTestStore(t, "test_import_tie")
	defer cleanup()

	existing := addTestNote(t, store, "Local", "local body")

	tied := existing
	tied.Subject = "Tied remote"

	stats, err := store.ImportSnapshot(importSnap(tied))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("equal timestamps must skip, stats = %+v", stats)
	}

	got, _ := store.Get(existing.ID)
	if got.Subject != "Local" {
		t.Error("tie must keep the existing record")
	}
}

func TestImportUsesMergeTimestampFallbacks(t *testing.T) {
	store, _, cleanup := setupTestStore(t, "test_import_fallback")
	defer cleanup()

	existing := addTestNote(t, store, "Local", "body")

	// Incoming note without lastModified falls back to updatedAt
	in := existing
	in.Subject = "From updatedAt"
	in.LastModified = time.Time{}
	updated := existing.LastModified.Add(10 * time.Second)
	in.UpdatedAt = &updated

	stats, err := store.ImportSnapshot(importSnap(in))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Updated != 1 {
		t.Errorf("updatedAt fallback should win, stats = %+v", stats)
	}

	got, _ := store.Get(existing.ID)
	if got.Subject != "From updatedAt" {
		t.Errorf("fallback timestamp not honored: %q", got.Subject)
	}
}

func TestImportSkipsNotesWithoutIds(t *testing.T) {
	store, _, cleanup := setupTestStore(t, "test_import_noid")
	defer cleanup()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	anonymous := wireNote("", "No id", "body", base)

	stats, err := store.ImportSnapshot(importSnap(anonymous))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Skipped != 1 || store.Count() != 0 {
		t.Errorf("id-less note should be skipped, stats = %+v", stats)
	}
}
