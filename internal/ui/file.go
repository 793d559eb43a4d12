package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"vidconv/internal/progress"
)

type fileState struct {
	index  int
	name   string
	stage  progress.Stage
	status string
	err    error
	done   bool

	output  string
	bytes   int64
	percent int // -1 means unknown

	spinner spinner.Model
	bar     bubblesprogress.Model

	lastLog string
}

func newFileState(index int, name string, styles Styles) *fileState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	return &fileState{
		index:   index,
		name:    name,
		stage:   progress.StageQueued,
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
	}
}
