package cmd

import (
	"fmt"
	"io"
	"sync"

	"vidconv/internal/progress"
)

// lineReporter prints one line per stage change, for non-interactive output.
type lineReporter struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	last  map[int]progress.Stage
}

func newLineReporter(w io.Writer, total int) *lineReporter {
	return &lineReporter{w: w, total: total, last: map[int]progress.Stage{}}
}

func (r *lineReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last[u.Index] == u.Stage {
		return
	}
	r.last[u.Index] = u.Stage
	if u.Stage == progress.StageQueued || u.Stage == progress.StageError {
		return
	}
	fmt.Fprintf(r.w, "[%d/%d] %s: %s\n", u.Index+1, r.total, u.Name, u.Message)
}

func (r *lineReporter) Log(progress.Log) {}

func (r *lineReporter) Result(res progress.Result) {
	if res.Err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "[%d/%d] %s: failed: %v\n", res.Index+1, r.total, res.Name, res.Err)
}
