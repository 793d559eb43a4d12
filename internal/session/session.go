// Package session owns the state of one user session: the engine handle, the
// selected files and the results of the last batch. UI surfaces mutate it only
// by dispatching intents.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vidconv/internal/blob"
	"vidconv/internal/engine"
	"vidconv/internal/intake"
	"vidconv/internal/metrics"
	"vidconv/internal/model"
	"vidconv/internal/pipeline"
	"vidconv/internal/progress"
	"vidconv/internal/util"
)

var (
	// ErrNoFiles is returned by Convert when nothing is selected.
	ErrNoFiles = errors.New("no files selected")
	// ErrEngineLoad wraps engine load failures. The batch is not started and
	// the next Convert retries the load.
	ErrEngineLoad = errors.New("engine load failed")
	// ErrBusy is returned while a batch is running.
	ErrBusy = errors.New("a conversion is already running")
	// ErrIndex is returned for out-of-range file indexes.
	ErrIndex = errors.New("file index out of range")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// Session is safe for concurrent use. Only one batch runs at a time.
type Session struct {
	engine    engine.Engine
	engineCfg engine.Config
	store     blob.Store
	reporter  progress.Reporter
	logger    *zap.Logger

	mu      sync.Mutex
	loaded  bool
	busy    bool
	closed  bool
	files   []intake.File
	results []model.Result
	jobID   string
}

// Option configures a Session.
type Option func(*Session)

// WithEngine sets the engine. It is loaded lazily by the first Convert.
func WithEngine(e engine.Engine, cfg engine.Config) Option {
	return func(s *Session) {
		s.engine = e
		s.engineCfg = cfg
	}
}

// WithStore sets the result blob store. The session closes it on Close.
func WithStore(st blob.Store) Option {
	return func(s *Session) {
		s.store = st
	}
}

// WithReporter attaches a progress reporter for batches.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Session) {
		s.reporter = rp
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{}
	for _, o := range opts {
		o(s)
	}
	if s.store == nil {
		s.store = blob.NewMemory()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Dispatch applies intent and returns the resulting state.
func (s *Session) Dispatch(ctx context.Context, intent Intent) (Outcome, error) {
	switch in := intent.(type) {
	case AddFiles:
		return s.addFiles(in)
	case RemoveFile:
		return s.removeFile(in)
	case ClearFiles:
		return s.clearFiles()
	case Convert:
		return s.convert(ctx, in)
	case DiscardResult:
		return s.discard(in)
	case SaveResult:
		return s.save(in)
	}
	return Outcome{}, fmt.Errorf("unknown intent %T", intent)
}

// Files returns the current selection.
func (s *Session) Files() []intake.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.files)
}

// Results returns the results of the last batch, without released entries.
func (s *Session) Results() []model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// Blob returns the bytes of a live result.
func (s *Session) Blob(locator string) (blob.Blob, []byte, error) {
	return s.store.Get(locator)
}

func (s *Session) snapshot() Outcome {
	return Outcome{Files: slices.Clone(s.files), Results: slices.Clone(s.results), JobID: s.jobID}
}

func (s *Session) addFiles(in AddFiles) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Outcome{}, ErrClosed
	}
	var added []intake.File
	for _, f := range in.Files {
		if intake.IsMedia(f.ContentType) {
			added = append(added, f)
		}
	}
	skipped := len(in.Files) - len(added)
	if len(added) == 0 {
		return s.snapshot(), intake.ErrNoMedia
	}
	s.files = append(s.files, added...)
	out := s.snapshot()
	out.Skipped = skipped
	return out, nil
}

func (s *Session) removeFile(in RemoveFile) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.snapshot(), ErrBusy
	}
	if in.Index < 0 || in.Index >= len(s.files) {
		return s.snapshot(), fmt.Errorf("%w: %d", ErrIndex, in.Index)
	}
	s.files = slices.Delete(s.files, in.Index, in.Index+1)
	return s.snapshot(), nil
}

func (s *Session) clearFiles() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.snapshot(), ErrBusy
	}
	s.files = nil
	return s.snapshot(), nil
}

func (s *Session) convert(ctx context.Context, in Convert) (Outcome, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return Outcome{}, ErrClosed
	case s.busy:
		s.mu.Unlock()
		return Outcome{}, ErrBusy
	case len(s.files) == 0:
		s.mu.Unlock()
		return Outcome{}, ErrNoFiles
	}
	if err := in.Settings.Validate(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	s.busy = true
	files := slices.Clone(s.files)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if err := s.ensureEngine(ctx); err != nil {
		return Outcome{}, err
	}

	// the new batch replaces the previous results
	s.releaseResults()

	jobID := uuid.NewString()
	svc := pipeline.NewService(
		pipeline.WithEngine(s.engine),
		pipeline.WithStore(s.store),
		pipeline.WithReporter(s.reporter),
		pipeline.WithLogger(s.logger),
		pipeline.WithJobID(jobID),
	)
	results := svc.ConvertBatch(ctx, files, in.Settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.jobID = jobID
	return s.snapshot(), nil
}

func (s *Session) ensureEngine(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	if s.engine == nil {
		return fmt.Errorf("%w: no engine configured", ErrEngineLoad)
	}
	err := s.engine.Load(ctx, s.engineCfg)
	metrics.EngineLoadsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		s.logger.Error("engine load failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrEngineLoad, err)
	}
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *Session) releaseResults() {
	s.mu.Lock()
	old := s.results
	s.results = nil
	s.mu.Unlock()
	for _, r := range old {
		if r.Locator == "" {
			continue
		}
		if err := s.store.Release(r.Locator); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.logger.Warn("release result", zap.String("locator", r.Locator), zap.Error(err))
		}
	}
}

// forget drops locator from the results list. Caller holds mu.
func (s *Session) forget(locator string) {
	s.results = slices.DeleteFunc(s.results, func(r model.Result) bool {
		return r.Locator == locator
	})
}

func (s *Session) discard(in DiscardResult) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Release(in.Locator); err != nil {
		return s.snapshot(), err
	}
	s.forget(in.Locator)
	return s.snapshot(), nil
}

func (s *Session) save(in SaveResult) (Outcome, error) {
	b, data, err := s.store.Get(in.Locator)
	if err != nil {
		return Outcome{}, err
	}
	if err := util.EnsureDir(in.Dir); err != nil {
		return Outcome{}, fmt.Errorf("output dir: %w", err)
	}
	path := util.UniquePath(in.Dir, util.SanitizeFilename(b.Name))
	if err := util.WriteFileAtomic(path, data); err != nil {
		return Outcome{}, fmt.Errorf("save %s: %w", b.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !in.Keep {
		if err := s.store.Release(in.Locator); err != nil && !errors.Is(err, blob.ErrNotFound) {
			return s.snapshot(), err
		}
		s.forget(in.Locator)
	}
	out := s.snapshot()
	out.SavedPath = path
	return out, nil
}

// Close releases every result blob and shuts the engine down. It returns
// ErrBusy while a batch is running; cancel the batch first.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.closed = true
	s.files = nil
	s.results = nil
	s.mu.Unlock()

	var errs []error
	errs = append(errs, s.store.Close())
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	return errors.Join(errs...)
}
