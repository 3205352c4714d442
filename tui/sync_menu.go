package tui

import (
	"fmt"
	"strings"

	"notesync/models"
)

// Actions the sync menu offers, in display order.
const (
	syncActionCreate = iota
	syncActionMerge
	syncActionImport
	syncActionBackup
	syncActionToggle
	syncActionStrategy
	syncActionCount
)

// syncMenuModel is the sync screen: one menu entry per sync operation,
// plus a summary of the current sync state underneath.
type syncMenuModel struct {
	idx     int
	status  string
	lastErr error

	// seenFile is the most recent snapshot the directory watcher reported;
	// merging picks it up instead of the default sync file path.
	seenFile string
}

func newSyncMenuModel() syncMenuModel {
	return syncMenuModel{}
}

func (m syncMenuModel) labels(state *models.SyncState) []string {
	enabled := "off"
	if state.Enabled() {
		enabled = "on"
	}
	return []string{
		"Create sync file",
		"Merge sync file",
		"Import snapshot file",
		"Export backup",
		"Local sync: " + enabled,
		"Strategy: " + string(state.Strategy()),
	}
}

func (m syncMenuModel) View(state *models.SyncState) string {
	var b strings.Builder

	for i, label := range m.labels(state) {
		cursor := "  "
		if i == m.idx {
			cursor = "> "
			label = selectedStyle.Render(label)
		}
		b.WriteString(cursor + label + "\n")
	}

	b.WriteString("\n")
	if info := state.LastSyncInfo(); info != nil {
		b.WriteString(fmt.Sprintf("Last sync: %s (%s)\n",
			info.Ago, info.Timestamp.Format("Jan 2, 2006 15:04")))
	} else {
		b.WriteString("Last sync: never\n")
	}
	if m.seenFile != "" {
		b.WriteString(statusStyle.Render("Sync file detected: "+m.seenFile) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.lastErr.Error()) + "\n")
	}

	return renderPage("Sync", strings.TrimRight(b.String(), "\n"),
		"enter: select │ ↑/↓: move │ esc: back")
}
