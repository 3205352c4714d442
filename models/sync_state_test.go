package models_test

import (
	"testing"
	"time"

	"notesync/models"
)

func TestSyncStateDefaults(t *testing.T) {
	state := models.NewSyncState(models.NewMemKV())

	if state.Enabled() {
		t.Error("sync must default to disabled")
	}
	if state.Strategy() != models.StrategyNewestWins {
		t.Errorf("default strategy = %q, want newest_wins", state.Strategy())
	}
	if _, ok := state.LastSync(); ok {
		t.Error("last sync should be absent initially")
	}
	if state.LastSyncInfo() != nil {
		t.Error("last sync info should be nil before any sync")
	}
}

func TestSyncStateTogglePersists(t *testing.T) {
	kv := models.NewMemKV()
	state := models.NewSyncState(kv)

	if err := state.SetEnabled(true); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if !state.Enabled() {
		t.Error("enable did not stick")
	}

	// A second state over the same KV sees the setting
	if !models.NewSyncState(kv).Enabled() {
		t.Error("enabled flag not visible through the KV surface")
	}

	if err := state.SetEnabled(false); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if state.Enabled() {
		t.Error("disable did not stick")
	}
}

func TestSyncStateStrategyValidation(t *testing.T) {
	state := models.NewSyncState(models.NewMemKV())

	if err := state.SetStrategy(models.StrategyManual); err != nil {
		t.Fatalf("valid strategy rejected: %v", err)
	}
	if state.Strategy() != models.StrategyManual {
		t.Errorf("strategy = %q after set", state.Strategy())
	}

	if err := state.SetStrategy(models.Strategy("flip_a_coin")); !models.IsValidation(err) {
		t.Errorf("invalid strategy should fail validation, got %v", err)
	}
	if state.Strategy() != models.StrategyManual {
		t.Error("failed set must not change the stored strategy")
	}
}

func TestSyncStateSeedStrategy(t *testing.T) {
	state := models.NewSyncState(models.NewMemKV())

	if err := state.SeedStrategy(models.StrategyMergeAll); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if state.Strategy() != models.StrategyMergeAll {
		t.Errorf("seed did not take on empty state, got %q", state.Strategy())
	}

	// A later seed must not override a stored choice
	if err := state.SeedStrategy(models.StrategyManual); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if state.Strategy() != models.StrategyMergeAll {
		t.Errorf("seed overrode a stored strategy, got %q", state.Strategy())
	}
}

func TestSyncStateRecordSync(t *testing.T) {
	state := models.NewSyncState(models.NewMemKV())

	if err := state.RecordSync("abc123"); err != nil {
		t.Fatalf("record sync failed: %v", err)
	}

	when, ok := state.LastSync()
	if !ok {
		t.Fatal("last sync should be set after recording")
	}
	if time.Since(when) > time.Minute {
		t.Errorf("last sync timestamp looks stale: %v", when)
	}

	fp, ok := state.LastFingerprint()
	if !ok || fp != "abc123" {
		t.Errorf("fingerprint = %q, want abc123", fp)
	}

	info := state.LastSyncInfo()
	if info == nil {
		t.Fatal("last sync info should be available")
	}
	if info.Ago != "just now" {
		t.Errorf("a fresh sync should read 'just now', got %q", info.Ago)
	}
}

func TestSyncStateDeviceIDStable(t *testing.T) {
	kv := models.NewMemKV()
	state := models.NewSyncState(kv)

	first, err := state.DeviceID()
	if err != nil {
		t.Fatalf("device id failed: %v", err)
	}
	if first == "" {
		t.Fatal("device id should be generated on first use")
	}

	second, err := state.DeviceID()
	if err != nil {
		t.Fatalf("device id failed: %v", err)
	}
	if second != first {
		t.Errorf("device id changed between calls: %q vs %q", first, second)
	}

	// And survives a fresh state over the same KV
	again, _ := models.NewSyncState(kv).DeviceID()
	if again != first {
		t.Error("device id not persisted on the KV surface")
	}
}

func TestTimeAgoBoundaries(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{90 * time.Second, "1 minute ago"},
		{2 * time.Minute, "2 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{time.Hour, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{23 * time.Hour, "23 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{29 * 24 * time.Hour, "29 days ago"},
	}
	for _, tc := range cases {
		if got := models.TimeAgo(now.Add(-tc.elapsed), now); got != tc.want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", tc.elapsed, got, tc.want)
		}
	}

	// Thirty days and beyond: absolute calendar date
	old := now.Add(-31 * 24 * time.Hour)
	if got := models.TimeAgo(old, now); got != old.Format("Jan 2, 2006") {
		t.Errorf("TimeAgo(31d) = %q, want the calendar date", got)
	}
}

func TestBoltKVRoundTrip(t *testing.T) {
	path := t.TempDir() + "/state.db"

	kv, err := models.OpenBoltKV(path)
	if err != nil {
		t.Fatalf("failed to open bolt kv: %v", err)
	}
	defer kv.Close()

	if _, ok, err := kv.Get("missing"); err != nil || ok {
		t.Errorf("missing key: ok=%v err=%v", ok, err)
	}

	if err := kv.Set("greeting", "hello"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, ok, err := kv.Get("greeting")
	if err != nil || !ok || v != "hello" {
		t.Errorf("get after set: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := kv.Remove("greeting"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := kv.Get("greeting"); ok {
		t.Error("key still present after remove")
	}

	// Removing a missing key is not an error
	if err := kv.Remove("greeting"); err != nil {
		t.Errorf("removing a missing key errored: %v", err)
	}
}
