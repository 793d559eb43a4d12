package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vidconv/internal/blob"
	"vidconv/internal/config"
	"vidconv/internal/dirs"
	"vidconv/internal/engine"
	"vidconv/internal/logging"
	"vidconv/internal/progress"
	"vidconv/internal/session"
	"vidconv/internal/util"
	"vidconv/internal/util/deps"
)

// app is the wiring shared by the commands that run conversions.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  blob.Store
	sess   *session.Session
}

// loadConfig resolves flags, env and the config file for cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	_ = dirs.EnsureAll()
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.Verbose,
	})
}

func openStore(cfg config.Config) (blob.Store, error) {
	if cfg.BlobStore != config.StorePebble {
		return blob.NewMemory(), nil
	}
	dir, err := dirs.BlobDir()
	if err != nil {
		return nil, err
	}
	return blob.OpenPebble(dir)
}

// newApp checks the ffmpeg dependency and builds the session. The engine is
// loaded lazily by the first batch.
func newApp(cmd *cobra.Command, rep progress.Reporter) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}

	ffmpeg, err := deps.FindFFmpeg(cfg.FFmpeg)
	if err != nil {
		return nil, &ExitError{Code: ExitMissingDep, Err: err}
	}
	ffprobe, err := deps.FindFFprobe(cfg.FFprobe)
	if err != nil {
		logger.Warn("ffprobe not found; progress will be indeterminate", zap.Error(err))
		ffprobe = ""
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: fmt.Errorf("open blob store: %w", err)}
	}
	scratch, _ := dirs.ScratchBaseDir()

	eng := engine.NewFFmpeg(
		engine.WithRunner(util.NewDefaultRunner(logger)),
		engine.WithLogger(logger),
	)
	sess := session.New(
		session.WithEngine(eng, engine.Config{FFmpegPath: ffmpeg, FFprobePath: ffprobe, ScratchBase: scratch}),
		session.WithStore(store),
		session.WithReporter(rep),
		session.WithLogger(logger),
	)
	return &app{cfg: cfg, logger: logger, store: store, sess: sess}, nil
}

func (a *app) Close() error {
	err := a.sess.Close()
	_ = a.logger.Sync()
	return err
}

// exitFor maps session errors onto exit codes.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	if errors.Is(err, session.ErrEngineLoad) {
		return &ExitError{Code: ExitEngineLoad, Err: err}
	}
	return &ExitError{Code: ExitCLIError, Err: err}
}
