package tui

import (
	"notesync/models"
)

type notesLoadedMsg struct {
	notes []models.Note
	err   error
}

type noteSavedMsg struct {
	note models.Note
	err  error
}

type noteDeletedMsg struct {
	err error
}

type searchDoneMsg struct {
	notes []models.Note
	term  string
	err   error
}

type syncFileWrittenMsg struct {
	path string
	err  error
}

type backupWrittenMsg struct {
	path string
	err  error
}

type importDoneMsg struct {
	stats models.ImportStats
	err   error
}

type mergeDoneMsg struct {
	result   *models.MergeResult
	incoming []models.Note
	err      error
}

type mergeAppliedMsg struct {
	err error
}

// syncFileSeenMsg reports a snapshot file created or changed in the
// watched sync directory.
type syncFileSeenMsg struct {
	path string
}

type watcherClosedMsg struct{}
