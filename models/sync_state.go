package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
)

// Keys the sync state occupies on the key-value surface.
const (
	keySyncEnabled = "local_sync_enabled"
	keyStrategy    = "conflict_resolution_strategy"
	keyLastSync    = "last_local_sync"
	keyDeviceID    = "device_id"
	keyFingerprint = "last_sync_fingerprint"
)

// SyncState is the process-wide sync configuration and bookkeeping: whether
// local sync is enabled, the chosen conflict strategy, and when the last
// sync happened. Pure state over the KV surface — no merge logic lives here.
type SyncState struct {
	kv KV
}

// NewSyncState wraps the given key-value surface.
func NewSyncState(kv KV) *SyncState {
	return &SyncState{kv: kv}
}

// Enabled reports whether local sync is switched on. Missing or unreadable
// state counts as disabled (opt-in design).
func (s *SyncState) Enabled() bool {
	v, ok, err := s.kv.Get(keySyncEnabled)
	if err != nil || !ok {
		return false
	}
	return v == "true"
}

// SetEnabled switches local sync on or off.
func (s *SyncState) SetEnabled(enabled bool) error {
	v := "false"
	if enabled {
		v = "true"
	}
	return serr.Wrap(s.kv.Set(keySyncEnabled, v), "failed to persist sync enabled flag")
}

// Strategy returns the configured conflict strategy, defaulting to
// newest-wins when nothing valid is stored.
func (s *SyncState) Strategy() Strategy {
	v, ok, err := s.kv.Get(keyStrategy)
	if err != nil || !ok || !ValidStrategy(v) {
		return StrategyNewestWins
	}
	return Strategy(v)
}

// SeedStrategy stores def as the strategy when none is persisted yet.
// A strategy already chosen through the UI is left alone.
func (s *SyncState) SeedStrategy(def Strategy) error {
	_, ok, err := s.kv.Get(keyStrategy)
	if err != nil {
		return serr.Wrap(err, "failed to read strategy")
	}
	if ok {
		return nil
	}
	return s.SetStrategy(def)
}

// SetStrategy persists the conflict strategy.
func (s *SyncState) SetStrategy(strategy Strategy) error {
	if !ValidStrategy(string(strategy)) {
		return serr.Wrap(ErrValidation, "unknown strategy: "+string(strategy))
	}
	return serr.Wrap(s.kv.Set(keyStrategy, string(strategy)), "failed to persist strategy")
}

// LastSync returns the time of the last completed sync, if any.
func (s *SyncState) LastSync() (time.Time, bool) {
	v, ok, err := s.kv.Get(keyLastSync)
	if err != nil || !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LastWrite returns the store's last-local-write marker, if any.
func (s *SyncState) LastWrite() (time.Time, bool) {
	v, ok, err := s.kv.Get(lastWriteKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RecordSync stamps now as the last sync time and stores the collection
// fingerprint captured at that moment, enabling cheap divergence checks.
func (s *SyncState) RecordSync(fingerprint string) error {
	if err := s.kv.Set(keyLastSync, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return serr.Wrap(err, "failed to persist last sync time")
	}
	return serr.Wrap(s.kv.Set(keyFingerprint, fingerprint), "failed to persist sync fingerprint")
}

// LastFingerprint returns the collection fingerprint recorded at the last
// sync, if any.
func (s *SyncState) LastFingerprint() (string, bool) {
	v, ok, err := s.kv.Get(keyFingerprint)
	if err != nil || !ok {
		return "", false
	}
	return v, true
}

// DeviceID returns this installation's stable identifier, generating and
// persisting one on first use. It tags snapshot envelopes so the origin of
// a sync file can be told apart from the local instance.
func (s *SyncState) DeviceID() (string, error) {
	v, ok, err := s.kv.Get(keyDeviceID)
	if err != nil {
		return "", serr.Wrap(err, "failed to read device id")
	}
	if ok && v != "" {
		return v, nil
	}

	id := "device_" + uuid.NewString()
	if err := s.kv.Set(keyDeviceID, id); err != nil {
		return "", serr.Wrap(err, "failed to persist device id")
	}
	return id, nil
}

// SyncInfo describes the last sync in both machine and human terms.
type SyncInfo struct {
	Timestamp time.Time
	Ago       string
}

// LastSyncInfo returns the last sync with a human-readable age, or nil when
// no sync has happened yet.
func (s *SyncState) LastSyncInfo() *SyncInfo {
	t, ok := s.LastSync()
	if !ok {
		return nil
	}
	return &SyncInfo{
		Timestamp: t,
		Ago:       TimeAgo(t, time.Now()),
	}
}

// TimeAgo formats the elapsed time since t in coarse human terms: under a
// minute reads "just now", then singular/plural minutes, hours, and days;
// anything thirty days or older shows the absolute calendar date.
func TimeAgo(t, now time.Time) string {
	minutes := int(now.Sub(t).Minutes())

	switch {
	case minutes < 1:
		return "just now"
	case minutes == 1:
		return "1 minute ago"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	}

	hours := minutes / 60
	switch {
	case hours == 1:
		return "1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := hours / 24
	switch {
	case days == 1:
		return "1 day ago"
	case days < 30:
		return fmt.Sprintf("%d days ago", days)
	}

	return t.Format("Jan 2, 2006")
}
