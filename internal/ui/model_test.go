package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"vidconv/internal/model"
	"vidconv/internal/progress"
)

func apply(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_TracksFiles(t *testing.T) {
	m := newModel([]string{"a.mov", "b.mov"}, NewReporter(), func() {})

	m = apply(t, m,
		fileUpdateMsg{U: progress.Update{Index: 0, Stage: progress.StageEncoding, Percent: 42, Message: "Converting"}},
		fileResultMsg{R: progress.Result{Index: 0, Output: "id-a", Bytes: 2048}},
		fileLogMsg{L: progress.Log{Index: 1, Line: "Invalid data found\n"}},
		fileResultMsg{R: progress.Result{Index: 1, Err: errors.New("ffmpeg exited with code 1: Invalid data found")}},
	)

	a, b := m.files[0], m.files[1]
	if !a.done || a.stage != progress.StageCompleted || a.percent != 100 || a.bytes != 2048 {
		t.Errorf("file a = %+v", a)
	}
	if b.err == nil || b.stage != progress.StageError || b.lastLog != "Invalid data found" {
		t.Errorf("file b = %+v", b)
	}
	if done, failed := m.counts(); done != 2 || failed != 1 {
		t.Errorf("counts = %d, %d", done, failed)
	}
	if v := m.View(); !strings.Contains(v, "2/2 done, 1 failed") {
		t.Errorf("header missing counts:\n%s", v)
	}
}

func TestModel_UnknownIndexIgnored(t *testing.T) {
	m := newModel([]string{"a.mov"}, NewReporter(), func() {})
	m = apply(t, m, fileUpdateMsg{U: progress.Update{Index: 7, Stage: progress.StageEncoding}})
	if m.files[0].stage != progress.StageQueued {
		t.Errorf("stage = %s", m.files[0].stage)
	}
}

func TestModel_QuitCancels(t *testing.T) {
	cancelled := false
	m := newModel([]string{"a.mov"}, NewReporter(), func() { cancelled = true })
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Error("q did not cancel the batch")
	}
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command is not tea.Quit")
	}
	if !strings.Contains(next.(Model).View(), "Cancelled") {
		t.Error("view does not show cancellation")
	}
}

func TestModel_BatchDoneShowsResults(t *testing.T) {
	m := newModel([]string{"a.mov"}, NewReporter(), func() {})
	m = apply(t, m, batchDoneMsg{Results: []model.Result{
		{Index: 0, Name: "a.mp4", Source: "a.mov", Size: 1024, Success: true},
	}})
	if !m.finished {
		t.Fatal("not finished")
	}
	if v := m.View(); !strings.Contains(v, "a.mp4 (1.0 KB)") {
		t.Errorf("summary missing result:\n%s", v)
	}
}

func TestReporter_DropsAfterClose(t *testing.T) {
	rep := NewReporter()
	rep.close()
	done := make(chan struct{})
	go func() {
		// the buffer absorbs the first sends; the rest must not block
		for i := 0; i < 1000; i++ {
			rep.Result(progress.Result{Index: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Result blocked after close")
	}
}
