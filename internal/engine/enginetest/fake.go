// Package enginetest provides an in-memory engine.Engine for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"vidconv/internal/engine"
)

// Fake keeps scratch files in a map. Exec copies the -i input to the last
// argument, emitting the configured progress ratios first.
type Fake struct {
	mu      sync.Mutex
	loaded  bool
	files   map[string][]byte
	subs    map[int]func(engine.Progress)
	nextSub int

	// LoadErr is returned by Load when set.
	LoadErr error
	// ExecErr, when non-nil, decides per call whether Exec fails.
	ExecErr func(args []string) error
	// Ratios are emitted to progress subscribers during Exec.
	Ratios []float64
	// Output transforms the input bytes into the output bytes.
	Output func(in []byte) []byte

	Loads   int
	Execs   [][]string
	Deleted []string
	Closed  bool
}

var _ engine.Engine = (*Fake)(nil)

// New returns an unloaded fake engine.
func New() *Fake {
	return &Fake{files: map[string][]byte{}, subs: map[int]func(engine.Progress){}}
}

func (f *Fake) Load(ctx context.Context, _ engine.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loads++
	if f.LoadErr != nil {
		return f.LoadErr
	}
	f.loaded = true
	return nil
}

func (f *Fake) WriteFile(_ context.Context, name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return engine.ErrNotLoaded
	}
	f.files[name] = slices.Clone(data)
	return nil
}

func (f *Fake) ReadFile(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return nil, engine.ErrNotLoaded
	}
	data, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrNotFound, name)
	}
	return slices.Clone(data), nil
}

func (f *Fake) DeleteFile(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[name]; !ok {
		return fmt.Errorf("%w: %s", engine.ErrNotFound, name)
	}
	delete(f.files, name)
	f.Deleted = append(f.Deleted, name)
	return nil
}

func (f *Fake) Exec(ctx context.Context, args []string) error {
	f.mu.Lock()
	if !f.loaded {
		f.mu.Unlock()
		return engine.ErrNotLoaded
	}
	f.Execs = append(f.Execs, slices.Clone(args))
	execErr := f.ExecErr
	ratios := slices.Clone(f.Ratios)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if execErr != nil {
		if err := execErr(args); err != nil {
			return err
		}
	}
	for _, r := range ratios {
		f.emit(engine.Progress{Ratio: r})
	}

	in := slices.Index(args, "-i")
	if in < 0 || in+1 >= len(args) {
		return errors.New("fake engine: no input")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[args[in+1]]
	if !ok {
		return &engine.ExecError{Code: 1, Message: args[in+1] + ": No such file or directory"}
	}
	if f.Output != nil {
		data = f.Output(data)
	}
	f.files[args[len(args)-1]] = slices.Clone(data)
	return nil
}

func (f *Fake) OnProgress(fn func(engine.Progress)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *Fake) emit(p engine.Progress) {
	f.mu.Lock()
	fns := make([]func(engine.Progress), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	f.loaded = false
	return nil
}

// Files returns the names currently staged.
func (f *Fake) Files() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.files))
	for n := range f.files {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Subscribers returns the number of registered progress callbacks.
func (f *Fake) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
