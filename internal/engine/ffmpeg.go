package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"vidconv/internal/util"
	"vidconv/internal/util/deps"
)

var _ Engine = (*FFmpeg)(nil)

// engineFlags precede every argument list passed to Exec.
var engineFlags = []string{"-hide_banner", "-nostdin", "-y", "-progress", "pipe:1", "-nostats"}

// FFmpeg drives a native ffmpeg binary inside a private scratch directory.
type FFmpeg struct {
	runner util.CmdRunner
	logger *zap.Logger

	mu      sync.Mutex
	dir     string
	ffmpeg  string
	ffprobe string
	subs    map[uint64]func(Progress)
	nextSub uint64
}

// Option configures an FFmpeg engine.
type Option func(*FFmpeg)

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(f *FFmpeg) {
		f.runner = r
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *FFmpeg) {
		f.logger = l
	}
}

// NewFFmpeg returns an unloaded engine.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{subs: map[uint64]func(Progress){}}
	for _, o := range opts {
		o(f)
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.runner == nil {
		f.runner = util.NewDefaultRunner(f.logger)
	}
	return f
}

// Load locates the binaries and creates the scratch directory. Loading an
// already loaded engine is a no-op. A missing ffprobe only disables
// duration-based progress.
func (f *FFmpeg) Load(ctx context.Context, cfg Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dir != "" {
		return nil
	}

	bin, err := deps.FindFFmpeg(cfg.FFmpegPath)
	if err != nil {
		return err
	}
	probe, err := deps.FindFFprobe(cfg.FFprobePath)
	if err != nil {
		f.logger.Warn("ffprobe unavailable, progress will be indeterminate", zap.Error(err))
		probe = ""
	}
	dir, err := util.MakeTempWorkdir(cfg.ScratchBase, "engine")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	f.dir, f.ffmpeg, f.ffprobe = dir, bin, probe
	f.logger.Info("engine loaded", zap.String("ffmpeg", bin), zap.String("scratch", dir))
	return nil
}

// Dir returns the scratch directory, or "" when unloaded.
func (f *FFmpeg) Dir() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dir
}

func (f *FFmpeg) path(name string) (string, error) {
	f.mu.Lock()
	dir := f.dir
	f.mu.Unlock()
	if dir == "" {
		return "", ErrNotLoaded
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(dir, name), nil
}

func (f *FFmpeg) WriteFile(ctx context.Context, name string, data []byte) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (f *FFmpeg) ReadFile(ctx context.Context, name string) ([]byte, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, err
}

func (f *FFmpeg) DeleteFile(_ context.Context, name string) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

// Exec runs ffmpeg with args inside the scratch directory, so relative names
// refer to staged files. Progress is derived from the probed input duration.
func (f *FFmpeg) Exec(ctx context.Context, args []string) error {
	f.mu.Lock()
	dir, bin := f.dir, f.ffmpeg
	f.mu.Unlock()
	if dir == "" {
		return ErrNotLoaded
	}

	ps := &progressState{duration: f.expectedDuration(ctx, dir, args)}
	full := make([]string, 0, len(engineFlags)+len(args))
	full = append(full, engineFlags...)
	full = append(full, args...)
	f.logger.Debug("ffmpeg exec", zap.Strings("args", full), zap.Duration("expected", ps.duration))

	res, err := f.runner.Run(ctx, util.CmdSpec{
		Path: bin,
		Args: full,
		Dir:  dir,
		StdoutLine: func(line string) {
			if p, ok := ps.updateFromLine(line); ok {
				f.emit(p)
			}
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ExecError{Code: res.Code, Message: util.Tail(res.Stderr, 3)}
	}
	return nil
}

func (f *FFmpeg) OnProgress(fn func(Progress)) func() {
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

func (f *FFmpeg) emit(p Progress) {
	f.mu.Lock()
	fns := make([]func(Progress), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

// Close removes the scratch directory. The engine may be loaded again afterwards.
func (f *FFmpeg) Close() error {
	f.mu.Lock()
	dir := f.dir
	f.dir = ""
	f.mu.Unlock()
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// expectedDuration estimates the output duration from the probed input,
// the trim bounds and any setpts/atempo scaling in args. Zero means unknown.
func (f *FFmpeg) expectedDuration(ctx context.Context, dir string, args []string) time.Duration {
	f.mu.Lock()
	probe := f.ffprobe
	f.mu.Unlock()
	input := flagValue(args, "-i")
	if probe == "" || input == "" {
		return 0
	}
	d, err := f.probeDuration(ctx, probe, dir, input)
	if err != nil {
		f.logger.Debug("duration probe failed", zap.String("input", input), zap.Error(err))
		return 0
	}
	if end, ok := parseTimestamp(flagValue(args, "-to")); ok && end < d {
		d = end
	}
	if start, ok := parseTimestamp(flagValue(args, "-ss")); ok && start < d {
		d -= start
	}
	if factor := ptsFactor(flagValue(args, "-vf")); factor > 0 {
		d = time.Duration(float64(d) * factor)
	} else if tempo := tempoProduct(flagValue(args, "-af")); tempo > 0 {
		d = time.Duration(float64(d) / tempo)
	}
	return d
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (f *FFmpeg) probeDuration(ctx context.Context, probe, dir, input string) (time.Duration, error) {
	res, err := f.runner.Run(ctx, util.CmdSpec{
		Path:          probe,
		Args:          []string{"-v", "error", "-print_format", "json", "-show_format", input},
		Dir:           dir,
		CaptureStdout: true,
	})
	if err != nil {
		return 0, err
	}
	var out ffprobeOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return 0, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	secs, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// flagValue returns the token following the first occurrence of flag.
func flagValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// parseTimestamp accepts [[HH:]MM:]SS[.frac].
func parseTimestamp(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var secs float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		secs = secs*60 + v
	}
	return time.Duration(secs * float64(time.Second)), true
}

// ptsFactor extracts X from a "setpts=X*PTS" stage of a filter chain.
func ptsFactor(chain string) float64 {
	for _, stage := range strings.Split(chain, ",") {
		v, ok := strings.CutPrefix(stage, "setpts=")
		if !ok {
			continue
		}
		v, ok = strings.CutSuffix(v, "*PTS")
		if !ok {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return 0
}

// tempoProduct multiplies every atempo stage of a filter chain.
func tempoProduct(chain string) float64 {
	product, found := 1.0, false
	for _, stage := range strings.Split(chain, ",") {
		v, ok := strings.CutPrefix(stage, "atempo=")
		if !ok {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			product *= f
			found = true
		}
	}
	if !found {
		return 0
	}
	return product
}
