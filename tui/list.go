package tui

import (
	"fmt"
	"strings"

	"notesync/models"
)

type listModel struct {
	notes    []models.Note
	idx      int
	loading  bool
	status   string
	lastErr  error
	filtered bool
	term     string
}

func newListModel() listModel {
	return listModel{loading: true}
}

func (m listModel) current() (models.Note, bool) {
	if len(m.notes) == 0 || m.idx < 0 || m.idx >= len(m.notes) {
		return models.Note{}, false
	}
	return m.notes[m.idx], true
}

func (m *listModel) clampCursor() {
	if m.idx >= len(m.notes) {
		m.idx = len(m.notes) - 1
	}
	if m.idx < 0 {
		m.idx = 0
	}
}

func (m listModel) View() string {
	var b strings.Builder

	if m.loading {
		b.WriteString("Loading...\n")
	} else if len(m.notes) == 0 {
		if m.filtered {
			b.WriteString(fmt.Sprintf("No notes match %q\n", m.term))
		} else {
			b.WriteString("No notes yet. Press n to create one.\n")
		}
	} else {
		if m.filtered {
			b.WriteString(fmt.Sprintf("%d notes matching %q\n\n", len(m.notes), m.term))
		}
		for i, n := range m.notes {
			cursor := "  "
			row := fmt.Sprintf("%s %s",
				fitText(n.Subject, 40),
				categoryStyle.Render("["+models.DisplayCategory(n.Category)+"]"))
			if i == m.idx {
				cursor = "> "
				row = selectedStyle.Render(row)
			}
			b.WriteString(cursor + row + "\n")
			if i == m.idx {
				b.WriteString("    " + helpStyle.Render(fitText(firstLine(n.Content), 60)) + "\n")
			}
		}
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.lastErr.Error()) + "\n")
	}

	hotKeys := "n: new │ e: edit │ d: delete │ /: search │ s: sync │ ↑/↓: move"
	if m.filtered {
		hotKeys = "esc: clear search │ " + hotKeys
	}
	return renderPage("Notes", strings.TrimRight(b.String(), "\n"), hotKeys)
}
