// Package engine abstracts the external transcoder: a private scratch
// namespace for staged files plus an exec call taking an ffmpeg argument list.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotLoaded is returned by every file or exec operation before Load succeeds.
	ErrNotLoaded = errors.New("engine not loaded")
	// ErrInvalidName is returned for names that would escape the scratch namespace.
	ErrInvalidName = errors.New("invalid scratch file name")
	// ErrNotFound is returned when a scratch file does not exist.
	ErrNotFound = errors.New("scratch file not found")
)

// Config configures Load.
type Config struct {
	FFmpegPath  string // empty = look up in PATH
	FFprobePath string // empty = look up in PATH
	ScratchBase string // parent of the scratch directory; empty = $TMPDIR/vidconv
}

// Progress is a fractional completion event emitted while Exec runs.
type Progress struct {
	Ratio float64       // 0..1, or negative when the duration is unknown
	Time  time.Duration // output timestamp reached
	Speed string        // encoder speed as reported, e.g. "1.5x"
	Done  bool
}

// Engine is the contract the orchestrator drives.
type Engine interface {
	Load(ctx context.Context, cfg Config) error
	WriteFile(ctx context.Context, name string, data []byte) error
	Exec(ctx context.Context, args []string) error
	ReadFile(ctx context.Context, name string) ([]byte, error)
	DeleteFile(ctx context.Context, name string) error
	// OnProgress registers fn for progress events and returns a function
	// that removes it.
	OnProgress(fn func(Progress)) (unsubscribe func())
	Close() error
}

// ExecError is returned when the transcoder exits unsuccessfully. Message
// holds the tail of its diagnostic output.
type ExecError struct {
	Code    int
	Message string
}

func (e *ExecError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.Code)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.Code, e.Message)
}
