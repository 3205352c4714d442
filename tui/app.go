package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"notesync/models"
)

type screen int

const (
	screenList screen = iota
	screenForm
	screenSearch
	screenSync
	screenConflicts
)

// appModel routes between screens and owns the commands that touch the
// store and sync layer. Sub-models render and hold per-screen state only.
type appModel struct {
	store   *models.Store
	state   *models.SyncState
	manager *models.SyncManager
	watcher *models.SyncWatcher
	syncDir string

	currentScreen screen
	list          listModel
	form          formModel
	search        searchModel
	syncMenu      syncMenuModel
	conflicts     conflictModel

	showConfirm   bool
	pendingDelete string
}

func newAppModel(store *models.Store, state *models.SyncState, manager *models.SyncManager,
	watcher *models.SyncWatcher, syncDir string) appModel {
	return appModel{
		store:         store,
		state:         state,
		manager:       manager,
		watcher:       watcher,
		syncDir:       syncDir,
		currentScreen: screenList,
		list:          newListModel(),
		syncMenu:      newSyncMenuModel(),
	}
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.cmdLoadNotes()}
	if m.watcher != nil {
		cmds = append(cmds, m.cmdWaitForSyncFile())
	}
	return tea.Batch(cmds...)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showConfirm {
			return m.updateConfirm(msg)
		}
		switch m.currentScreen {
		case screenList:
			return m.updateList(msg)
		case screenForm:
			return m.updateForm(msg)
		case screenSearch:
			return m.updateSearch(msg)
		case screenSync:
			return m.updateSync(msg)
		case screenConflicts:
			return m.updateConflicts(msg)
		}
		return m, nil

	case notesLoadedMsg:
		m.list.loading = false
		m.list.lastErr = msg.err
		if msg.err == nil {
			m.list.notes = msg.notes
			m.list.filtered = false
			m.list.term = ""
			m.list.clampCursor()
		}
		return m, nil

	case searchDoneMsg:
		if msg.err != nil {
			m.list.lastErr = msg.err
			return m, nil
		}
		m.currentScreen = screenList
		m.list.notes = msg.notes
		m.list.filtered = true
		m.list.term = msg.term
		m.list.lastErr = nil
		m.list.idx = 0
		return m, nil

	case noteSavedMsg:
		if msg.err != nil {
			if models.IsValidation(msg.err) {
				// keep the form open so the user can fix the input
				return m, nil
			}
			m.list.lastErr = msg.err
			m.currentScreen = screenList
			return m, nil
		}
		m.currentScreen = screenList
		m.list.status = "Saved: " + fitText(msg.note.Subject, 40)
		m.list.lastErr = nil
		return m, m.cmdLoadNotes()

	case noteDeletedMsg:
		m.list.lastErr = msg.err
		if msg.err == nil {
			m.list.status = "Note deleted"
		}
		return m, m.cmdLoadNotes()

	case syncFileWrittenMsg:
		m.syncMenu.lastErr = msg.err
		if msg.err == nil {
			m.syncMenu.status = "Sync file written to " + msg.path
		}
		return m, nil

	case backupWrittenMsg:
		m.syncMenu.lastErr = msg.err
		if msg.err == nil {
			m.syncMenu.status = "Backup written to " + msg.path
		}
		return m, nil

	case importDoneMsg:
		m.syncMenu.lastErr = msg.err
		if msg.err == nil {
			m.syncMenu.status = fmt.Sprintf("Imported %d new, %d updated, %d skipped",
				msg.stats.Imported, msg.stats.Updated, msg.stats.Skipped)
		}
		return m, m.cmdLoadNotes()

	case mergeDoneMsg:
		m.syncMenu.lastErr = msg.err
		if msg.err != nil {
			return m, nil
		}
		if msg.result.RequiresManualResolution {
			m.conflicts = newConflictModel(msg.result, msg.incoming)
			m.currentScreen = screenConflicts
			return m, nil
		}
		m.syncMenu.status = fmt.Sprintf("Merged: %d notes, %d added, %d conflicts",
			msg.result.Stats.Total, msg.result.Stats.Added, msg.result.Stats.Conflicts)
		m.syncMenu.seenFile = ""
		return m, m.cmdLoadNotes()

	case mergeAppliedMsg:
		m.currentScreen = screenSync
		m.syncMenu.lastErr = msg.err
		if msg.err == nil {
			m.syncMenu.status = "Manual merge applied"
			m.syncMenu.seenFile = ""
		}
		return m, m.cmdLoadNotes()

	case syncFileSeenMsg:
		m.syncMenu.seenFile = msg.path
		return m, m.cmdWaitForSyncFile()

	case watcherClosedMsg:
		return m, nil
	}

	return m, nil
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.yes):
		m.showConfirm = false
		id := m.pendingDelete
		m.pendingDelete = ""
		return m, m.cmdDeleteNote(id)
	case key.Matches(msg, keys.no), key.Matches(msg, keys.esc):
		m.showConfirm = false
		m.pendingDelete = ""
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.list.status = ""

	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit
	case key.Matches(msg, keys.up):
		if m.list.idx > 0 {
			m.list.idx--
		}
	case key.Matches(msg, keys.down):
		if m.list.idx < len(m.list.notes)-1 {
			m.list.idx++
		}
	case key.Matches(msg, keys.newNote):
		m.form = newFormModel(nil)
		m.currentScreen = screenForm
	case key.Matches(msg, keys.edit), key.Matches(msg, keys.enter):
		if n, ok := m.list.current(); ok {
			m.form = newFormModel(&n)
			m.currentScreen = screenForm
		}
	case key.Matches(msg, keys.delete):
		if n, ok := m.list.current(); ok {
			m.showConfirm = true
			m.pendingDelete = n.ID
		}
	case key.Matches(msg, keys.search):
		m.search = newSearchModel()
		m.currentScreen = screenSearch
	case key.Matches(msg, keys.sync):
		m.currentScreen = screenSync
	case key.Matches(msg, keys.esc):
		if m.list.filtered {
			m.list.loading = true
			return m, m.cmdLoadNotes()
		}
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		m.currentScreen = screenList
		return m, nil
	case key.Matches(msg, keys.save):
		return m, m.cmdSaveNote(m.form)
	case key.Matches(msg, keys.tab):
		m.form.nextField(1)
		return m, nil
	case key.Matches(msg, keys.backtab):
		m.form.nextField(-1)
		return m, nil
	}

	// The category row holds no text input, so arrow synonyms are safe here
	if m.form.focus == 2 {
		switch {
		case key.Matches(msg, keys.left):
			m.form.cycleCategory(-1)
			return m, nil
		case key.Matches(msg, keys.right):
			m.form.cycleCategory(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.form.focus {
	case 0:
		m.form.subject, cmd = m.form.subject.Update(msg)
	case 1:
		m.form.content, cmd = m.form.content.Update(msg)
	}
	return m, cmd
}

func (m appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		m.currentScreen = screenList
		return m, nil
	case key.Matches(msg, keys.tab):
		m.search.cycleField()
		return m, nil
	case key.Matches(msg, keys.enter):
		return m, m.cmdSearch(m.search.input.Value(), m.search.fieldValue())
	}

	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return m, cmd
}

func (m appModel) updateSync(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.syncMenu.status = ""

	switch {
	case key.Matches(msg, keys.esc):
		m.currentScreen = screenList
		return m, nil
	case key.Matches(msg, keys.up):
		if m.syncMenu.idx > 0 {
			m.syncMenu.idx--
		}
	case key.Matches(msg, keys.down):
		if m.syncMenu.idx < syncActionCount-1 {
			m.syncMenu.idx++
		}
	case key.Matches(msg, keys.enter):
		return m.runSyncAction(m.syncMenu.idx)
	}
	return m, nil
}

func (m appModel) runSyncAction(action int) (tea.Model, tea.Cmd) {
	switch action {
	case syncActionCreate:
		return m, m.cmdCreateSyncFile()
	case syncActionMerge:
		path := m.syncMenu.seenFile
		if path == "" {
			path = filepath.Join(m.syncDir, models.SyncFileName)
		}
		return m, m.cmdMerge(path, m.state.Strategy())
	case syncActionImport:
		path := m.syncMenu.seenFile
		if path == "" {
			path = filepath.Join(m.syncDir, models.SyncFileName)
		}
		return m, m.cmdImport(path)
	case syncActionBackup:
		return m, m.cmdExportBackup()
	case syncActionToggle:
		if err := m.state.SetEnabled(!m.state.Enabled()); err != nil {
			m.syncMenu.lastErr = err
		}
		return m, nil
	case syncActionStrategy:
		m.syncMenu.lastErr = m.state.SetStrategy(nextStrategy(m.state.Strategy()))
		return m, nil
	}
	return m, nil
}

func (m appModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c, ok := m.conflicts.current()
	if !ok {
		m.currentScreen = screenSync
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.esc):
		// abandon: nothing was applied, the store is untouched
		m.currentScreen = screenSync
		m.syncMenu.status = "Merge abandoned, no changes applied"
		return m, nil
	case key.Matches(msg, keys.local):
		return m.resolveCurrent(c.ID, models.ChoiceLocal)
	case key.Matches(msg, keys.incoming):
		return m.resolveCurrent(c.ID, models.ChoiceIncoming)
	}
	return m, nil
}

func (m appModel) resolveCurrent(id string, choice models.ConflictChoice) (tea.Model, tea.Cmd) {
	_, done, err := m.conflicts.queue.Resolve(id, choice)
	if err != nil {
		m.syncMenu.lastErr = err
		m.currentScreen = screenSync
		return m, nil
	}
	if !done {
		return m, nil
	}
	return m, m.cmdApplyResolved(m.conflicts)
}

func nextStrategy(s models.Strategy) models.Strategy {
	switch s {
	case models.StrategyNewestWins:
		return models.StrategyMergeAll
	case models.StrategyMergeAll:
		return models.StrategyManual
	default:
		return models.StrategyNewestWins
	}
}

func (m appModel) View() string {
	if m.showConfirm {
		subject := ""
		if n, ok := m.list.current(); ok {
			subject = n.Subject
		}
		return renderPage("Delete Note",
			fmt.Sprintf("Delete %q?", fitText(subject, 40)),
			"y: delete │ n/esc: keep")
	}

	switch m.currentScreen {
	case screenForm:
		return m.form.View()
	case screenSearch:
		return m.search.View()
	case screenSync:
		return m.syncMenu.View(m.state)
	case screenConflicts:
		return m.conflicts.View()
	default:
		return m.list.View()
	}
}

// Commands — every store or sync call runs as a tea.Cmd so the UI loop
// never blocks on storage.

func (m appModel) cmdLoadNotes() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return notesLoadedMsg{notes: store.List()}
	}
}

func (m appModel) cmdSaveNote(form formModel) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if form.editing {
			n, err := store.Update(form.noteID, form.toPatch())
			return noteSavedMsg{note: n, err: err}
		}
		n, err := store.Add(form.toDraft())
		return noteSavedMsg{note: n, err: err}
	}
}

func (m appModel) cmdDeleteNote(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		_, err := store.Delete(id)
		return noteDeletedMsg{err: err}
	}
}

func (m appModel) cmdSearch(term string, field models.SearchField) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		notes, err := store.Search(term, field)
		return searchDoneMsg{notes: notes, term: strings.TrimSpace(term), err: err}
	}
}

func (m appModel) cmdCreateSyncFile() tea.Cmd {
	mgr, dir := m.manager, m.syncDir
	return func() tea.Msg {
		_, path, err := mgr.CreateSyncFile(dir)
		return syncFileWrittenMsg{path: path, err: err}
	}
}

func (m appModel) cmdExportBackup() tea.Cmd {
	mgr, dir := m.manager, m.syncDir
	return func() tea.Msg {
		_, path, err := mgr.ExportBackup(dir)
		return backupWrittenMsg{path: path, err: err}
	}
}

func (m appModel) cmdImport(path string) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		stats, err := mgr.ImportFile(path)
		return importDoneMsg{stats: stats, err: err}
	}
}

func (m appModel) cmdMerge(path string, strategy models.Strategy) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		snap, err := mgr.ReadSyncFile(path)
		if err != nil {
			return mergeDoneMsg{err: err}
		}
		result, err := mgr.MergeSnapshot(snap, strategy)
		return mergeDoneMsg{result: result, incoming: snap.Notes, err: err}
	}
}

func (m appModel) cmdApplyResolved(conflicts conflictModel) tea.Cmd {
	mgr, store := m.manager, m.store
	return func() tea.Msg {
		merged := models.FinishManualMerge(store.List(), conflicts.incoming, conflicts.queue.Winners())
		err := mgr.ApplyMerge(&models.MergeResult{
			MergedNotes: merged,
			Stats: models.MergeStats{
				Total:     len(merged),
				Conflicts: conflicts.total,
				Strategy:  models.StrategyManual,
			},
		})
		return mergeAppliedMsg{err: err}
	}
}

// cmdWaitForSyncFile blocks on the watcher channel; re-issued after every
// event so the stream keeps flowing.
func (m appModel) cmdWaitForSyncFile() tea.Cmd {
	events := m.watcher.Events
	return func() tea.Msg {
		path, ok := <-events
		if !ok {
			return watcherClosedMsg{}
		}
		return syncFileSeenMsg{path: path}
	}
}
