package tui

import (
	"github.com/charmbracelet/bubbles/textinput"

	"notesync/models"
)

// searchModel is the search prompt: a term plus the field it runs against.
type searchModel struct {
	input textinput.Model
	field int
}

var searchFields = []models.SearchField{
	models.FieldSubject,
	models.FieldContent,
	models.FieldDate,
}

func newSearchModel() searchModel {
	in := textinput.New()
	in.Placeholder = "search term"
	in.Width = 40
	in.Focus()
	return searchModel{input: in}
}

func (m searchModel) fieldValue() models.SearchField {
	if m.field < 0 || m.field >= len(searchFields) {
		return models.FieldSubject
	}
	return searchFields[m.field]
}

func (m *searchModel) cycleField() {
	m.field = (m.field + 1) % len(searchFields)
}

func (m searchModel) View() string {
	hint := ""
	if m.fieldValue() == models.FieldDate {
		hint = "\n\n" + helpStyle.Render("date format: dd/mm/yyyy")
	}

	body := "Field: " + string(m.fieldValue()) + "\n\n" +
		"Term:  " + m.input.View() + hint

	return renderPage("Search", body,
		"enter: search │ tab: switch field │ esc: back")
}
