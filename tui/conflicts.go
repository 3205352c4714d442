package tui

import (
	"fmt"
	"strings"

	"notesync/models"
)

// conflictModel walks the user through the pending conflicts of a manual
// merge one at a time. The merge applies only after the queue drains.
type conflictModel struct {
	queue    *models.ConflictQueue
	incoming []models.Note
	total    int
}

func newConflictModel(result *models.MergeResult, incoming []models.Note) conflictModel {
	return conflictModel{
		queue:    models.NewConflictQueue(result.Conflicts),
		incoming: incoming,
		total:    len(result.Conflicts),
	}
}

func (m conflictModel) current() (models.Conflict, bool) {
	pending := m.queue.Pending()
	if len(pending) == 0 {
		return models.Conflict{}, false
	}
	return pending[0], true
}

func (m conflictModel) View() string {
	c, ok := m.current()
	if !ok {
		return renderPage("Resolve Conflicts", "All conflicts resolved.", "")
	}

	resolved := m.total - len(m.queue.Pending())

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Conflict %d of %d — %q\n\n", resolved+1, m.total, fitText(c.Local.Subject, 40)))
	b.WriteString(fmt.Sprintf("Local:    modified %s\n", c.LocalTime.Format("Jan 2, 2006 15:04:05")))
	b.WriteString(fmt.Sprintf("Incoming: modified %s\n\n", c.IncomingTime.Format("Jan 2, 2006 15:04:05")))
	b.WriteString("Changes (local → incoming):\n")
	b.WriteString(c.DiffPreview())

	return renderPage("Resolve Conflicts", strings.TrimRight(b.String(), "\n"),
		"l: keep local │ i: take incoming │ esc: abandon merge")
}
