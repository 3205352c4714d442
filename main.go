package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rohanthewiz/logger"

	"notesync/models"
	"notesync/tui"
)

func main() {
	cfg, err := models.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logger.SetLogLevel(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal("Failed to create data directory: ", err)
	}

	kv, err := models.OpenBoltKV(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		log.Fatal("Failed to open key-value store: ", err)
	}
	defer kv.Close()

	store, err := models.OpenStore(filepath.Join(cfg.DataDir, "notes.ddb"), kv)
	if err != nil {
		log.Fatal("Failed to open note store: ", err)
	}
	defer store.Close()

	state := models.NewSyncState(kv)
	if err := state.SeedStrategy(models.Strategy(cfg.Strategy)); err != nil {
		logger.LogErr(err, "failed to seed default strategy")
	}
	manager := models.NewSyncManager(store, state, models.OSFileAccess{}, cfg.ConflictThreshold)

	// Watching is best-effort; without it sync files are still mergeable
	// on demand.
	watcher, err := models.WatchSyncDir(cfg.SyncDir)
	if err != nil {
		logger.LogErr(err, "sync directory watching disabled")
		watcher = nil
	} else {
		defer watcher.Close()
	}

	logger.Info("Starting NoteSync", "notes", store.Count(), "data_dir", cfg.DataDir)

	if err := tui.New(store, state, manager, watcher, cfg.SyncDir).Run(); err != nil {
		log.Fatal("Interface error: ", err)
	}
}
