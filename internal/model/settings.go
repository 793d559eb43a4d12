package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"vidconv/internal/codec"
	"vidconv/internal/util/bitrate"
)

// ErrInvalidSettings is wrapped by every error returned from Settings.Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Quality is an ordered quality tier mapped to codec-specific numeric values.
type Quality string

const (
	QualityHighest Quality = "highest"
	QualityHigh    Quality = "high"
	QualityMedium  Quality = "medium"
	QualityLow     Quality = "low"
	QualityLowest  Quality = "lowest"
)

// Qualities lists the tiers from best to worst.
var Qualities = []Quality{QualityHighest, QualityHigh, QualityMedium, QualityLow, QualityLowest}

// Valid reports whether q is a known tier.
func (q Quality) Valid() bool {
	for _, k := range Qualities {
		if q == k {
			return true
		}
	}
	return false
}

// Rotation is a fixed orientation transform applied through the video filter chain.
type Rotation string

const (
	RotateNone  Rotation = "none"
	Rotate90    Rotation = "90"
	Rotate180   Rotation = "180"
	Rotate270   Rotation = "270"
	RotateHFlip Rotation = "hflip"
	RotateVFlip Rotation = "vflip"
)

// Rotations lists every accepted rotation value.
var Rotations = []Rotation{RotateNone, Rotate90, Rotate180, Rotate270, RotateHFlip, RotateVFlip}

// Valid reports whether r is a known rotation. Empty is treated as none.
func (r Rotation) Valid() bool {
	if r == "" {
		return true
	}
	for _, k := range Rotations {
		if r == k {
			return true
		}
	}
	return false
}

// Settings describes one conversion batch. It is immutable for the duration of the batch.
type Settings struct {
	Format        string   `json:"format" mapstructure:"format"`
	VideoCodec    string   `json:"videoCodec" mapstructure:"video_codec"`
	AudioCodec    string   `json:"audioCodec" mapstructure:"audio_codec"`
	Quality       Quality  `json:"quality" mapstructure:"quality"`
	VideoBitrate  string   `json:"videoBitrate,omitempty" mapstructure:"video_bitrate"`
	AudioBitrate  string   `json:"audioBitrate,omitempty" mapstructure:"audio_bitrate"`
	Resolution    string   `json:"resolution,omitempty" mapstructure:"resolution"`
	Framerate     string   `json:"framerate,omitempty" mapstructure:"framerate"`
	AspectRatio   string   `json:"aspectRatio,omitempty" mapstructure:"aspect_ratio"`
	SampleRate    string   `json:"sampleRate,omitempty" mapstructure:"sample_rate"`
	AudioChannels string   `json:"audioChannels,omitempty" mapstructure:"audio_channels"`
	Speed         float64  `json:"speed,omitempty" mapstructure:"speed"`
	Rotation      Rotation `json:"rotation,omitempty" mapstructure:"rotation"`
	TrimStart     string   `json:"trimStart,omitempty" mapstructure:"trim_start"`
	TrimEnd       string   `json:"trimEnd,omitempty" mapstructure:"trim_end"`
	Preset        string   `json:"preset,omitempty" mapstructure:"preset"`
	CustomArgs    string   `json:"customArgs,omitempty" mapstructure:"custom_args"`
}

// DefaultSettings returns the settings a fresh session starts with.
func DefaultSettings() Settings {
	return Settings{
		Format:     "mp4",
		VideoCodec: codec.Auto,
		AudioCodec: codec.Auto,
		Quality:    QualityMedium,
		Speed:      1,
		Rotation:   RotateNone,
	}
}

// IsAudioOnly reports whether the output format carries no video stream.
func (s Settings) IsAudioOnly() bool {
	return codec.IsAudioOnly(s.Format)
}

// EffectiveSpeed returns Speed with the zero value mapped to 1.
func (s Settings) EffectiveSpeed() float64 {
	if s.Speed == 0 {
		return 1
	}
	return s.Speed
}

// Validate checks the settings before a batch starts. The argument builder
// itself never rejects input, so everything the engine would choke on in an
// obvious way is caught here.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Format) == "" {
		return fmt.Errorf("%w: format is required", ErrInvalidSettings)
	}
	if !codec.Known(s.Format) {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidSettings, s.Format)
	}
	if s.Quality != "" && !s.Quality.Valid() {
		return fmt.Errorf("%w: unknown quality %q", ErrInvalidSettings, s.Quality)
	}
	if !s.Rotation.Valid() {
		return fmt.Errorf("%w: unknown rotation %q", ErrInvalidSettings, s.Rotation)
	}
	speed := s.EffectiveSpeed()
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return fmt.Errorf("%w: speed must be a finite positive number", ErrInvalidSettings)
	}
	if err := checkRate("video bitrate", s.VideoBitrate); err != nil {
		return err
	}
	if err := checkRate("audio bitrate", s.AudioBitrate); err != nil {
		return err
	}
	if s.VideoCodec == codec.None {
		return fmt.Errorf("%w: video codec %q is not supported, choose an audio-only format instead", ErrInvalidSettings, codec.None)
	}
	if s.VideoCodec == codec.Copy && !s.IsAudioOnly() && s.needsVideoFilters() {
		return fmt.Errorf("%w: rotation and speed changes require re-encoding, video codec cannot be copy", ErrInvalidSettings)
	}
	if s.AudioCodec == codec.Copy && speed != 1 {
		return fmt.Errorf("%w: speed changes require re-encoding, audio codec cannot be copy", ErrInvalidSettings)
	}
	return nil
}

func (s Settings) needsVideoFilters() bool {
	return (s.Rotation != "" && s.Rotation != RotateNone) || s.EffectiveSpeed() != 1
}

func checkRate(name, v string) error {
	if v == "" {
		return nil
	}
	if _, err := bitrate.Parse(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, name, err)
	}
	return nil
}
