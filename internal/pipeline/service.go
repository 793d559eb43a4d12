// Package pipeline drives a conversion batch through the engine, one file at
// a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vidconv/internal/blob"
	"vidconv/internal/codec"
	"vidconv/internal/engine"
	"vidconv/internal/intake"
	"vidconv/internal/metrics"
	"vidconv/internal/model"
	"vidconv/internal/progress"
	"vidconv/internal/util/format"
)

// Service orchestrates stage → exec → collect → cleanup for every file of a batch.
type Service struct {
	engine   engine.Engine
	store    blob.Store
	reporter progress.Reporter
	logger   *zap.Logger
	jobID    string
}

// Option configures a Service.
type Option func(*Service)

// WithEngine sets the loaded engine conversions run on.
func WithEngine(e engine.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithStore sets where converted outputs are kept.
func WithStore(st blob.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithJobID sets the batch ID attached to reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// NewService constructs a Service, defaulting to an in-memory store and no
// reporting.
func NewService(opts ...Option) *Service {
	s := &Service{}
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
	if s.jobID == "" {
		s.jobID = uuid.NewString()
	}
	return s
}

// JobID returns the batch ID attached to reporter events.
func (s *Service) JobID() string {
	return s.jobID
}

// ConvertBatch converts files sequentially and returns one result per file in
// input order. A failing file never stops the batch; once ctx is cancelled
// the remaining files are recorded as failed without being attempted.
func (s *Service) ConvertBatch(ctx context.Context, files []intake.File, settings model.Settings) []model.Result {
	metrics.BatchesTotal.Inc()
	steps := Plan(files, settings)
	logger := s.logger.With(zap.String("job", s.jobID))
	logger.Info("batch started", zap.Int("files", len(files)), zap.String("format", settings.Format))

	for _, st := range steps {
		s.reporter.Update(progress.Update{
			JobID:   s.jobID,
			Index:   st.Index,
			Name:    st.Source,
			Stage:   progress.StageQueued,
			Message: "Queued",
		})
	}

	results := make([]model.Result, len(steps))
	for i, st := range steps {
		var (
			res model.Result
			err error
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			res = model.Result{Index: st.Index, Name: st.ResultName, Source: st.Source}
		} else {
			start := time.Now()
			res, err = s.convertOne(ctx, files[i], st, settings.Format)
			metrics.ConversionDuration.Observe(time.Since(start).Seconds())
		}
		metrics.ConversionsTotal.WithLabelValues(metrics.Status(err)).Inc()

		if err != nil {
			// failures keep the name of the file the user picked
			res.Name = st.Source
			res.Success = false
			res.Error = err.Error()
			logger.Warn("conversion failed", zap.Int("index", st.Index), zap.String("source", st.Source), zap.Error(err))
			s.reporter.Update(progress.Update{
				JobID:   s.jobID,
				Index:   st.Index,
				Name:    st.Source,
				Stage:   progress.StageError,
				Percent: -1,
				Message: res.Error,
			})
		} else {
			metrics.OutputBytesTotal.Add(float64(res.Size))
		}
		s.reporter.Result(progress.Result{
			JobID:  s.jobID,
			Index:  st.Index,
			Name:   st.Source,
			Output: res.Locator,
			Bytes:  res.Size,
			Err:    err,
		})
		results[i] = res
	}

	ok, failed := model.Summary(results)
	logger.Info("batch finished", zap.Int("succeeded", ok), zap.Int("failed", failed))
	return results
}

func (s *Service) convertOne(ctx context.Context, f intake.File, st Step, outFormat string) (model.Result, error) {
	res := model.Result{Index: st.Index, Name: st.ResultName, Source: st.Source}
	if s.engine == nil {
		return res, errors.New("engine is required")
	}
	update := func(stage progress.Stage, pct int, msg string) {
		s.reporter.Update(progress.Update{
			JobID:   s.jobID,
			Index:   st.Index,
			Name:    st.Source,
			Stage:   stage,
			Percent: pct,
			Message: msg,
		})
	}

	// staged files are removed whatever happens, even after cancellation
	defer s.cleanup(context.WithoutCancel(ctx), st)

	update(progress.StageStaging, 0, "Staging")
	data, err := f.Bytes()
	if err != nil {
		return res, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if err := s.engine.WriteFile(ctx, st.InputName, data); err != nil {
		return res, err
	}

	update(progress.StageEncoding, 0, "Converting")
	unsubscribe := s.engine.OnProgress(func(p engine.Progress) {
		if p.Ratio < 0 {
			return
		}
		update(progress.StageEncoding, Percent(p.Ratio), "Converting")
	})
	err = s.engine.Exec(ctx, st.Args)
	unsubscribe()
	if err != nil {
		var ee *engine.ExecError
		if errors.As(err, &ee) {
			s.reporter.Log(progress.Log{JobID: s.jobID, Index: st.Index, Stream: progress.StreamStderr, Line: ee.Message})
		}
		return res, err
	}

	update(progress.StageCollecting, 100, "Collecting output")
	out, err := s.engine.ReadFile(ctx, st.OutputName)
	if err != nil {
		return res, err
	}
	b, err := s.store.Put(st.ResultName, codec.ContentType(outFormat), out)
	if err != nil {
		return res, fmt.Errorf("store output: %w", err)
	}

	res.Locator = b.ID
	res.Size = b.Size
	res.ContentType = b.ContentType
	res.Success = true
	update(progress.StageCompleted, 100, fmt.Sprintf("Done: %s (%s)", st.ResultName, format.HumanizeBytes(b.Size)))
	return res, nil
}

func (s *Service) cleanup(ctx context.Context, st Step) {
	for _, name := range []string{st.InputName, st.OutputName} {
		if err := s.engine.DeleteFile(ctx, name); err != nil && !errors.Is(err, engine.ErrNotFound) {
			s.logger.Debug("delete staged file", zap.String("name", name), zap.Error(err))
		}
	}
}

// Percent converts an engine completion ratio into a whole percentage in [0, 100].
func Percent(ratio float64) int {
	if math.IsNaN(ratio) {
		return 0
	}
	return int(math.Round(min(max(ratio, 0), 1) * 100))
}
