package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"vidconv/internal/model"
	"vidconv/internal/progress"
	"vidconv/internal/util/format"
)

type Model struct {
	cancel context.CancelFunc
	rep    *Reporter

	files []*fileState
	// byIndex maps a batch index to its position in files.
	byIndex map[int]*fileState

	finished  bool
	cancelled bool
	results   []model.Result
	err       error

	width, height int
	styles        Styles
}

func newModel(names []string, rep *Reporter, cancel context.CancelFunc) Model {
	sty := defaultStyles()
	files := make([]*fileState, 0, len(names))
	byIndex := make(map[int]*fileState, len(names))
	for i, n := range names {
		fs := newFileState(i, n, sty)
		files = append(files, fs)
		byIndex[i] = fs
	}
	return Model{
		cancel:  cancel,
		rep:     rep,
		files:   files,
		byIndex: byIndex,
		styles:  sty,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.files)+1)
	for _, fs := range m.files {
		cmds = append(cmds, fs.spinner.Tick)
	}
	cmds = append(cmds, m.listenEventsCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancelled = true
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case fileUpdateMsg:
		u := msg.U
		if fs, ok := m.byIndex[u.Index]; ok {
			fs.stage = u.Stage
			fs.percent = u.Percent
			if u.Message != "" {
				fs.status = u.Message
			}
		}
		return m, m.listenEventsCmd()

	case fileLogMsg:
		if fs, ok := m.byIndex[msg.L.Index]; ok {
			fs.lastLog = strings.TrimRight(msg.L.Line, "\r\n")
		}
		return m, m.listenEventsCmd()

	case fileResultMsg:
		r := msg.R
		if fs, ok := m.byIndex[r.Index]; ok {
			fs.done = true
			fs.err = r.Err
			if r.Err == nil {
				fs.stage = progress.StageCompleted
				fs.percent = 100
				fs.output = r.Output
				fs.bytes = r.Bytes
			} else {
				fs.stage = progress.StageError
				fs.status = r.Err.Error()
				fs.percent = -1
			}
		}
		return m, m.listenEventsCmd()

	case batchDoneMsg:
		m.finished = true
		m.results = msg.Results
		m.err = msg.Err
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	for _, fs := range m.files {
		var c tea.Cmd
		fs.spinner, c = fs.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	out := m.viewHeader() + "\n\n" + m.viewFiles()
	if s := m.viewSummary(); s != "" {
		out += "\n" + s
	}
	return out
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.rep.stop:
			return nil
		case msg := <-m.rep.ch:
			return msg
		}
	}
}

func (m Model) counts() (done, failed int) {
	for _, fs := range m.files {
		if fs.done {
			done++
			if fs.err != nil {
				failed++
			}
		}
	}
	return done, failed
}

func resultLine(r model.Result) string {
	if r.Success {
		return fmt.Sprintf("%s (%s)", r.Name, format.HumanizeBytes(r.Size))
	}
	return fmt.Sprintf("%s: %s", r.Source, r.Error)
}
