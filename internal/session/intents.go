package session

import (
	"vidconv/internal/intake"
	"vidconv/internal/model"
)

// Intent is a user action dispatched to a Session.
type Intent interface {
	intent()
}

// AddFiles appends the media files among Files to the selection.
type AddFiles struct {
	Files []intake.File
}

// RemoveFile drops the selected file at Index.
type RemoveFile struct {
	Index int
}

// ClearFiles empties the selection.
type ClearFiles struct{}

// Convert runs a batch over the current selection.
type Convert struct {
	Settings model.Settings
}

// DiscardResult releases the output behind Locator.
type DiscardResult struct {
	Locator string
}

// SaveResult writes the output behind Locator into Dir and releases it.
type SaveResult struct {
	Locator string
	Dir     string
	// Keep retains the blob after saving.
	Keep bool
}

func (AddFiles) intent()      {}
func (RemoveFile) intent()    {}
func (ClearFiles) intent()    {}
func (Convert) intent()       {}
func (DiscardResult) intent() {}
func (SaveResult) intent()    {}

// Outcome is the state after an intent was applied.
type Outcome struct {
	Files     []intake.File
	Results   []model.Result
	JobID     string
	SavedPath string
	// Skipped counts AddFiles entries rejected as non-media.
	Skipped int
}
