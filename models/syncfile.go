package models

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// FileAccess is the file I/O surface the sync layer reads and writes
// snapshots through. The UI decides which paths to pass in (file pickers
// are a presentation concern); the core only ever sees path -> bytes.
type FileAccess interface {
	ReadAll(path string) ([]byte, error)
	WriteAll(path string, data []byte) error
}

// OSFileAccess is the local-filesystem FileAccess implementation.
type OSFileAccess struct{}

func (OSFileAccess) ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	return data, serr.Wrap(err, "failed to read file "+path)
}

func (OSFileAccess) WriteAll(path string, data []byte) error {
	return serr.Wrap(os.WriteFile(path, data, 0644), "failed to write file "+path)
}

// SyncFileName is the fixed name sync files are exchanged under.
const SyncFileName = "notesync_local.json"

// BackupFileName suggests a timestamped name for a full export.
func BackupFileName(now time.Time) string {
	return "notesync-backup-" + now.Format("20060102-150405") + ".json"
}

// SyncManager ties the store, sync state, codec, and reconciler together
// behind the operations the UI issues: create a sync file, read one back,
// merge it, and absorb backups.
type SyncManager struct {
	store     *Store
	state     *SyncState
	files     FileAccess
	threshold time.Duration
}

// NewSyncManager builds a manager over the given collaborators. A zero
// threshold falls back to DefaultConflictThreshold.
func NewSyncManager(store *Store, state *SyncState, files FileAccess, threshold time.Duration) *SyncManager {
	if threshold <= 0 {
		threshold = DefaultConflictThreshold
	}
	return &SyncManager{store: store, state: state, files: files, threshold: threshold}
}

// CreateSyncFile snapshots the live collection into dir/SyncFileName and
// records the sync moment and fingerprint. Returns the snapshot and the
// path written.
func (m *SyncManager) CreateSyncFile(dir string) (*Snapshot, string, error) {
	snap, err := m.snapshot(SourceLocalSync)
	if err != nil {
		return nil, "", err
	}

	data, err := snap.Encode()
	if err != nil {
		return nil, "", err
	}

	path := filepath.Join(dir, SyncFileName)
	if err := m.files.WriteAll(path, data); err != nil {
		return nil, "", serr.Wrap(err, "failed to write sync file")
	}

	if err := m.state.RecordSync(FingerprintString(snap.Notes)); err != nil {
		logger.LogErr(err, "failed to record sync after creating sync file")
	}

	logger.Info("Sync file created", "path", path, "notes", snap.TotalNotes)
	return snap, path, nil
}

// ExportBackup writes a full timestamped backup snapshot into dir.
func (m *SyncManager) ExportBackup(dir string) (*Snapshot, string, error) {
	snap, err := m.snapshot(SourceBackup)
	if err != nil {
		return nil, "", err
	}

	data, err := snap.Encode()
	if err != nil {
		return nil, "", err
	}

	path := filepath.Join(dir, BackupFileName(time.Now()))
	if err := m.files.WriteAll(path, data); err != nil {
		return nil, "", serr.Wrap(err, "failed to write backup file")
	}

	logger.Info("Backup exported", "path", path, "notes", snap.TotalNotes)
	return snap, path, nil
}

// ReadSyncFile reads and decodes a snapshot from path. Decoding failures
// surface as ErrFormat; an integrity mismatch is non-fatal and flagged on
// the returned snapshot.
func (m *SyncManager) ReadSyncFile(path string) (*Snapshot, error) {
	name := strings.ToLower(filepath.Base(path))
	if !strings.Contains(name, "sync") && !strings.Contains(name, "backup") {
		logger.Warn("File name does not look like a sync or backup file", "path", path)
	}

	data, err := m.files.ReadAll(path)
	if err != nil {
		return nil, serr.Wrap(err, "failed to read sync file")
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}

	logger.Info("Sync file read", "path", path, "notes", len(snap.Notes),
		"source", snap.Source, "integrity_mismatch", snap.IntegrityMismatch)
	return snap, nil
}

// ImportFile absorbs the snapshot at path into the store with the
// per-record newest-wins policy.
func (m *SyncManager) ImportFile(path string) (ImportStats, error) {
	snap, err := m.ReadSyncFile(path)
	if err != nil {
		return ImportStats{}, err
	}
	return m.store.ImportSnapshot(snap)
}

// Merge reconciles the snapshot at path against the live collection under
// the given strategy. Automatic strategies apply the merged collection to
// the store and record the sync; StrategyManual applies nothing and returns
// the conflict list for resolution.
func (m *SyncManager) Merge(path string, strategy Strategy) (*MergeResult, error) {
	snap, err := m.ReadSyncFile(path)
	if err != nil {
		return nil, err
	}
	return m.MergeSnapshot(snap, strategy)
}

// MergeSnapshot reconciles an already decoded snapshot against the live
// collection and applies the result unless it needs manual resolution.
func (m *SyncManager) MergeSnapshot(snap *Snapshot, strategy Strategy) (*MergeResult, error) {
	result, err := Reconcile(m.store.List(), snap.Notes, strategy, m.threshold)
	if err != nil {
		return nil, err
	}

	if result.RequiresManualResolution {
		return result, nil
	}

	if err := m.ApplyMerge(result); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyMerge swaps the store's collection for the merge result and records
// the sync moment. The explicit application step keeps merges auditable.
func (m *SyncManager) ApplyMerge(result *MergeResult) error {
	if err := m.store.ReplaceAll(result.MergedNotes); err != nil {
		return serr.Wrap(err, "failed to apply merged collection")
	}
	if err := m.state.RecordSync(FingerprintString(result.MergedNotes)); err != nil {
		logger.LogErr(err, "failed to record sync after merge")
	}

	logger.Info("Merge applied",
		"strategy", string(result.Stats.Strategy),
		"total", result.Stats.Total,
		"added", result.Stats.Added,
		"conflicts", result.Stats.Conflicts,
	)
	return nil
}

// snapshot captures the live collection into an envelope with this
// device's id stamped in.
func (m *SyncManager) snapshot(source string) (*Snapshot, error) {
	deviceID, err := m.state.DeviceID()
	if err != nil {
		logger.LogErr(err, "failed to resolve device id for snapshot")
		deviceID = ""
	}
	return NewSnapshot(m.store.List(), source, deviceID), nil
}
