package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"

	"notesync/models"
)

// formModel is the create/edit screen. A nil editing target means a new
// note; otherwise the target's id is preserved and its fields prefilled.
type formModel struct {
	subject  textinput.Model
	content  textarea.Model
	category int
	focus    int
	editing  bool
	noteID   string
}

const formFields = 3

func newFormModel(target *models.Note) formModel {
	subject := textinput.New()
	subject.Width = 50
	subject.Focus()

	content := textarea.New()
	content.SetWidth(52)
	content.SetHeight(6)

	m := formModel{subject: subject, content: content}
	if target == nil {
		return m
	}

	m.editing = true
	m.noteID = target.ID
	m.subject.SetValue(target.Subject)
	m.content.SetValue(target.Content)
	for i, c := range models.KnownCategories {
		if c == target.Category {
			m.category = i
			break
		}
	}
	return m
}

func (m formModel) categoryValue() string {
	if m.category < 0 || m.category >= len(models.KnownCategories) {
		return models.DefaultCategory
	}
	return models.KnownCategories[m.category]
}

func (m *formModel) cycleCategory(delta int) {
	n := len(models.KnownCategories)
	m.category = (m.category + delta + n) % n
}

func (m *formModel) nextField(delta int) {
	m.focus = (m.focus + delta + formFields) % formFields
	m.subject.Blur()
	m.content.Blur()
	switch m.focus {
	case 0:
		m.subject.Focus()
	case 1:
		m.content.Focus()
	}
}

func (m formModel) toDraft() models.NoteDraft {
	return models.NoteDraft{
		Subject:  m.subject.Value(),
		Content:  m.content.Value(),
		Category: m.categoryValue(),
	}
}

func (m formModel) toPatch() models.NotePatch {
	subject := m.subject.Value()
	content := m.content.Value()
	category := m.categoryValue()
	return models.NotePatch{Subject: &subject, Content: &content, Category: &category}
}

func (m formModel) View() string {
	title := "New Note"
	if m.editing {
		title = "Edit: " + fitText(m.subject.Value(), 40)
	}

	marker := func(field int) string {
		if m.focus == field {
			return "> "
		}
		return "  "
	}

	var b strings.Builder
	b.WriteString(marker(0) + "Subject:  " + m.subject.View() + "\n\n")
	b.WriteString(marker(1) + "Content:\n")
	b.WriteString(m.content.View() + "\n\n")
	b.WriteString(marker(2) + "Category: " + models.DisplayCategory(m.categoryValue()))
	if m.focus == 2 {
		b.WriteString(helpStyle.Render("  (←/→ to change)"))
	}

	return renderPage(title, b.String(),
		"tab: next field │ ctrl+s: save │ esc: cancel")
}
