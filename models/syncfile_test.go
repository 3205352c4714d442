package models_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notesync/models"
)

// setupSyncManager wires a store, state, and manager over temp storage.
func setupSyncManager(t *testing.T, name string) (*models.SyncManager, *models.Store, *models.SyncState, func()) {
	t.Helper()

	store, kv, cleanup := setupTestStore(t, name)
	state := models.NewSyncState(kv)
	mgr := models.NewSyncManager(store, state, models.OSFileAccess{}, models.DefaultConflictThreshold)
	return mgr, store, state, cleanup
}

func TestCreateAndReadSyncFile(t *testing.T) {
	mgr, store, state, cleanup := setupSyncManager(t, "test_syncfile_create")
	defer cleanup()
	dir := t.TempDir()

	addTestNote(t, store, "Synced note", "body")

	snap, path, err := mgr.CreateSyncFile(dir)
	if err != nil {
		t.Fatalf("create sync file failed: %v", err)
	}
	if filepath.Base(path) != models.SyncFileName {
		t.Errorf("sync file named %q, want %q", filepath.Base(path), models.SyncFileName)
	}
	if snap.Source != models.SourceLocalSync {
		t.Errorf("source = %q, want local_sync", snap.Source)
	}
	if snap.DeviceID == "" {
		t.Error("snapshot should carry the device id")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sync file not written: %v", err)
	}
	if _, ok := state.LastSync(); !ok {
		t.Error("creating a sync file should record the sync")
	}

	read, err := mgr.ReadSyncFile(path)
	if err != nil {
		t.Fatalf("read sync file failed: %v", err)
	}
	if len(read.Notes) != 1 || read.Notes[0].Subject != "Synced note" {
		t.Errorf("read back %d notes: %+v", len(read.Notes), read.Notes)
	}
	if read.IntegrityMismatch {
		t.Error("freshly written sync file must pass its integrity check")
	}
}

func TestExportBackupFileName(t *testing.T) {
	mgr, store, _, cleanup := setupSyncManager(t, "test_syncfile_backup")
	defer cleanup()
	dir := t.TempDir()

	addTestNote(t, store, "Kept", "body")

	snap, path, err := mgr.ExportBackup(dir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "notesync-backup-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected backup file name %q", name)
	}
	if snap.Source != models.SourceBackup {
		t.Errorf("source = %q, want backup", snap.Source)
	}
}

func TestMergeAppliesAutomaticStrategy(t *testing.T) {
	mgr, store, state, cleanup := setupSyncManager(t, "test_syncfile_merge")
	defer cleanup()
	dir := t.TempDir()

	local := addTestNote(t, store, "Local", "local body")

	// Simulate the other instance: same note, edited later, plus a new one
	edited := local
	edited.Subject = "Edited elsewhere"
	edited.LastModified = local.LastModified.Add(10 * time.Second)
	fresh := wireNote("fresh-1", "Fresh", "body", time.Now().UTC())

	remote := models.NewSnapshot([]models.Note{edited, fresh}, models.SourceLocalSync, "device_other")
	data, err := remote.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	path := filepath.Join(dir, models.SyncFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	result, err := mgr.Merge(path, models.StrategyNewestWins)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if result.RequiresManualResolution {
		t.Fatal("newest-wins merge must not require manual resolution")
	}
	if store.Count() != 2 {
		t.Errorf("store holds %d notes after merge, want 2", store.Count())
	}

	got, _ := store.Get(local.ID)
	if got.Subject != "Edited elsewhere" {
		t.Errorf("newer remote edit not applied: %q", got.Subject)
	}
	if _, ok := state.LastSync(); !ok {
		t.Error("an applied merge should record the sync")
	}
	if fp, ok := state.LastFingerprint(); !ok || fp == "" {
		t.Error("an applied merge should record the collection fingerprint")
	}
}

func TestMergeManualLeavesStoreUntouched(t *testing.T) {
	mgr, store, _, cleanup := setupSyncManager(t, "test_syncfile_manual")
	defer cleanup()
	dir := t.TempDir()

	local := addTestNote(t, store, "Local", "local body")

	conflicting := local
	conflicting.Subject = "Conflicting"
	conflicting.LastModified = local.LastModified.Add(time.Hour)

	remote := models.NewSnapshot([]models.Note{conflicting}, models.SourceLocalSync, "device_other")
	data, _ := remote.Encode()
	path := filepath.Join(dir, models.SyncFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	result, err := mgr.Merge(path, models.StrategyManual)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !result.RequiresManualResolution || len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 pending conflict, got %+v", result)
	}

	got, _ := store.Get(local.ID)
	if got.Subject != "Local" {
		t.Error("manual merge must not touch the store")
	}

	// Resolve the conflict for the incoming side and apply explicitly
	queue := models.NewConflictQueue(result.Conflicts)
	winner, done, err := queue.Resolve(local.ID, models.ChoiceIncoming)
	if err != nil || !done {
		t.Fatalf("resolve failed: done=%v err=%v", done, err)
	}
	if _, err := store.Update(winner.ID, models.NotePatch{Subject: &winner.Subject}); err != nil {
		t.Fatalf("applying winner failed: %v", err)
	}
	got, _ = store.Get(local.ID)
	if got.Subject != "Conflicting" {
		t.Errorf("winner not applied: %q", got.Subject)
	}
}

func TestImportFileEndToEnd(t *testing.T) {
	mgr, store, _, cleanup := setupSyncManager(t, "test_syncfile_import")
	defer cleanup()
	dir := t.TempDir()

	snap := models.NewSnapshot([]models.Note{
		wireNote("imp-1", "Imported", "body", time.Now().UTC()),
	}, models.SourceBackup, "device_other")
	data, _ := snap.Encode()
	path := filepath.Join(dir, "notesync-backup-test.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	stats, err := mgr.ImportFile(path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Imported != 1 {
		t.Errorf("stats = %+v, want 1 imported", stats)
	}
	if store.Count() != 1 {
		t.Errorf("store holds %d notes, want 1", store.Count())
	}
}

func TestReadSyncFileRejectsGarbage(t *testing.T) {
	mgr, _, _, cleanup := setupSyncManager(t, "test_syncfile_garbage")
	defer cleanup()
	dir := t.TempDir()

	path := filepath.Join(dir, "sync_garbage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := mgr.ReadSyncFile(path); !models.IsFormat(err) {
		t.Errorf("expected format error, got %v", err)
	}
}
