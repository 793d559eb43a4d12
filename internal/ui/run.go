package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"vidconv/internal/model"
)

// ConvertFunc runs one batch. It is called once, off the UI goroutine.
type ConvertFunc func(ctx context.Context) ([]model.Result, error)

// Run shows one row per name while convert runs. Events reach the view
// through rep, which must be the reporter the batch reports to. Quitting
// cancels the batch; Run still waits for it and returns its results.
func Run(ctx context.Context, names []string, rep *Reporter, convert ConvertFunc) ([]model.Result, error) {
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(names, rep, cancel)
	prog := tea.NewProgram(m, tea.WithContext(ctx))

	done := make(chan batchDoneMsg, 1)
	go func() {
		results, err := convert(batchCtx)
		msg := batchDoneMsg{Results: results, Err: err}
		done <- msg
		prog.Send(msg)
	}()

	_, perr := prog.Run()
	rep.close()
	cancel()
	out := <-done

	if perr != nil && !errors.Is(perr, tea.ErrProgramKilled) {
		return out.Results, perr
	}
	return out.Results, out.Err
}
