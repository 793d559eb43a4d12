package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"vidconv/internal/model"
	"vidconv/internal/progress"
)

type fileUpdateMsg struct {
	U progress.Update
}

type fileLogMsg struct {
	L progress.Log
}

type fileResultMsg struct {
	R progress.Result
}

type batchDoneMsg struct {
	Results []model.Result
	Err     error
}

// Reporter feeds batch events into the TUI. It is safe for concurrent use.
type Reporter struct {
	ch   chan tea.Msg
	stop chan struct{}
	once sync.Once
}

var _ progress.Reporter = (*Reporter)(nil)

// NewReporter returns a reporter to pass to the session running the batch.
func NewReporter() *Reporter {
	return &Reporter{ch: make(chan tea.Msg, 256), stop: make(chan struct{})}
}

// close unblocks pending sends once the program has exited.
func (r *Reporter) close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *Reporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.stop:
	}
}

func (r *Reporter) Update(u progress.Update) {
	// terminal stages must reach the model; intermediate percentages may drop
	if u.Stage.Terminal() {
		r.send(fileUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- fileUpdateMsg{U: u}:
	default:
	}
}

func (r *Reporter) Log(l progress.Log) {
	select {
	case r.ch <- fileLogMsg{L: l}:
	default:
	}
}

func (r *Reporter) Result(res progress.Result) {
	r.send(fileResultMsg{R: res})
}
