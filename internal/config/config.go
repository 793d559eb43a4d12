// Package config layers flags, VIDCONV_* environment variables, the config
// file and built-in defaults into one Config.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vidconv/internal/dirs"
	"vidconv/internal/model"
)

// Blob store backends.
const (
	StoreMemory = "memory"
	StorePebble = "pebble"
)

// Config is the resolved runtime configuration.
type Config struct {
	OutDir    string `mapstructure:"out_dir"`
	Verbose   bool   `mapstructure:"verbose"`
	FFmpeg    string `mapstructure:"ffmpeg"`
	FFprobe   string `mapstructure:"ffprobe"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	BlobStore string `mapstructure:"blob_store"`
	Listen    string `mapstructure:"listen"`

	Convert model.Settings `mapstructure:"convert"`
}

// flagKeys maps flag names to config keys. Flags missing from a command's
// flag set are skipped.
var flagKeys = map[string]string{
	"out-dir":    "out_dir",
	"verbose":    "verbose",
	"ffmpeg":     "ffmpeg",
	"ffprobe":    "ffprobe",
	"log-level":  "log_level",
	"log-format": "log_format",
	"blob-store": "blob_store",
	"listen":     "listen",

	"format":         "convert.format",
	"video-codec":    "convert.video_codec",
	"audio-codec":    "convert.audio_codec",
	"quality":        "convert.quality",
	"video-bitrate":  "convert.video_bitrate",
	"audio-bitrate":  "convert.audio_bitrate",
	"resolution":     "convert.resolution",
	"framerate":      "convert.framerate",
	"aspect-ratio":   "convert.aspect_ratio",
	"sample-rate":    "convert.sample_rate",
	"audio-channels": "convert.audio_channels",
	"speed":          "convert.speed",
	"rotation":       "convert.rotation",
	"trim-start":     "convert.trim_start",
	"trim-end":       "convert.trim_end",
	"preset":         "convert.preset",
	"custom-args":    "convert.custom_args",
}

// New returns a viper instance with defaults and VIDCONV_* environment
// lookup. The config file search path is the user config dir.
func New() *viper.Viper {
	v := viper.New()
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		v.AddConfigPath(cfgDir)
	}
	v.SetConfigName("config") // config.{yaml|yml|json|toml}

	v.SetEnvPrefix("VIDCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	out, err := dirs.DefaultOutputDir()
	if err != nil {
		out = "."
	}
	v.SetDefault("out_dir", out)
	v.SetDefault("verbose", false)
	v.SetDefault("ffmpeg", "")
	v.SetDefault("ffprobe", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("blob_store", StoreMemory)
	v.SetDefault("listen", "127.0.0.1:8080")

	d := model.DefaultSettings()
	v.SetDefault("convert.format", d.Format)
	v.SetDefault("convert.video_codec", d.VideoCodec)
	v.SetDefault("convert.audio_codec", d.AudioCodec)
	v.SetDefault("convert.quality", string(d.Quality))
	v.SetDefault("convert.speed", d.Speed)
	v.SetDefault("convert.rotation", string(d.Rotation))
	for _, k := range []string{
		"video_bitrate", "audio_bitrate", "resolution", "framerate", "aspect_ratio",
		"sample_rate", "audio_channels", "trim_start", "trim_end", "preset", "custom_args",
	} {
		v.SetDefault("convert."+k, "")
	}
}

// BindFlags binds every known flag in fs to its config key, so that an
// explicitly set flag overrides env and file values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind --%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load reads the config file if present and resolves the final Config.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	switch c.BlobStore {
	case StoreMemory, StorePebble:
	default:
		return Config{}, fmt.Errorf("blob_store %q: want %s or %s", c.BlobStore, StoreMemory, StorePebble)
	}
	return c, nil
}
