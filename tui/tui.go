package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"notesync/models"
)

// App wires the note store and sync layer into the terminal interface.
type App struct {
	store   *models.Store
	state   *models.SyncState
	manager *models.SyncManager
	watcher *models.SyncWatcher
	syncDir string
}

// New builds the app over the given collaborators. The watcher may be nil;
// sync files are then picked up only when the user asks.
func New(store *models.Store, state *models.SyncState, manager *models.SyncManager,
	watcher *models.SyncWatcher, syncDir string) *App {
	return &App{
		store:   store,
		state:   state,
		manager: manager,
		watcher: watcher,
		syncDir: syncDir,
	}
}

// Run drives the interface until the user quits.
func (a *App) Run() error {
	model := newAppModel(a.store, a.state, a.manager, a.watcher, a.syncDir)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
