package models

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// SyncWatcher monitors the sync directory and reports when a snapshot file
// appears or changes, so the UI can offer to merge it without the user
// hunting for the file. Detection only — nothing is read or merged until
// the caller asks.
type SyncWatcher struct {
	watcher *fsnotify.Watcher

	// Events receives the path of each snapshot file created or written in
	// the watched directory. Closed when the watcher shuts down.
	Events chan string

	done chan struct{}
}

// WatchSyncDir starts watching dir (created if missing) for JSON snapshot
// files. Close the returned watcher to stop.
func WatchSyncDir(dir string) (*SyncWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, serr.Wrap(err, "failed to create sync directory "+dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, serr.Wrap(err, "failed to start sync directory watcher")
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, serr.Wrap(err, "failed to watch sync directory "+dir)
	}

	w := &SyncWatcher{
		watcher: fsw,
		Events:  make(chan string, 8),
		done:    make(chan struct{}),
	}
	go w.loop()

	logger.Info("Watching sync directory", "dir", dir)
	return w, nil
}

// Close stops the watcher and closes the Events channel.
func (w *SyncWatcher) Close() {
	close(w.done)
	w.watcher.Close()
}

func (w *SyncWatcher) loop() {
	defer close(w.Events)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".json" {
				continue
			}
			select {
			case w.Events <- event.Name:
			default:
				// UI is behind; drop rather than block the watch loop
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.LogErr(err, "sync directory watcher error")
		}
	}
}
