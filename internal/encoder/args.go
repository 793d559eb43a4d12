// Package encoder turns conversion settings into an ordered ffmpeg argument list.
package encoder

import (
	"strings"

	"vidconv/internal/codec"
	"vidconv/internal/model"
)

// BuildArgs constructs the ffmpeg arguments converting inputPath into outputPath.
// It is pure and never fails; malformed values are passed through and surface
// as engine errors at execution time. Engine-level flags (-y, -progress) are
// added by the engine, not here.
func BuildArgs(inputPath, outputPath string, s model.Settings) []string {
	var args []string
	speed := s.EffectiveSpeed()

	// input-side seek must precede -i
	if isSet(s.TrimStart) {
		args = append(args, "-ss", s.TrimStart)
	}
	args = append(args, "-i", inputPath)
	if isSet(s.TrimEnd) {
		args = append(args, "-to", s.TrimEnd)
	}

	videoCopy := s.VideoCodec == codec.Copy
	var vf []string

	if s.IsAudioOnly() || s.VideoCodec == codec.None {
		args = append(args, "-vn")
	} else {
		args = appendVideoCodec(args, s)

		if s.VideoBitrate != "" {
			args = append(args, "-b:v", s.VideoBitrate)
		}
		args = appendIf(args, "-s", s.Resolution)
		args = appendIf(args, "-r", s.Framerate)
		args = appendIf(args, "-aspect", s.AspectRatio)

		vf = append(vf, rotationFilters(s.Rotation)...)
		if speed != 1 {
			vf = append(vf, speedFilter(speed))
		}
	}
	if len(vf) > 0 {
		args = append(args, "-vf", strings.Join(vf, ","))
	}

	audio := resolveAudio(s, videoCopy)
	switch audio {
	case codec.None:
		args = append(args, "-an")
	case codec.Copy:
		args = append(args, "-c:a", codec.Copy)
	default:
		args = append(args, "-c:a", audio)
		args = appendIf(args, "-b:a", s.AudioBitrate)
		args = appendIf(args, "-ar", s.SampleRate)
		args = appendIf(args, "-ac", s.AudioChannels)
		if chain, ok := BuildTempoChain(speed); ok {
			args = append(args, "-af", chain)
		}
	}

	args = append(args, strings.Fields(s.CustomArgs)...)
	return append(args, outputPath)
}

func appendVideoCodec(args []string, s model.Settings) []string {
	if s.VideoCodec == codec.Copy {
		return append(args, "-c:v", codec.Copy)
	}
	// gif relies on the engine's default encoder
	if strings.EqualFold(s.Format, "gif") {
		return args
	}
	vc, ok := codec.Resolve(codec.KindVideo, s.VideoCodec, s.Format)
	if !ok {
		return args
	}
	args = append(args, "-c:v", vc)
	if s.VideoBitrate == "" {
		args = append(args, qualityArgs(vc, s.Quality)...)
		if familyOf(vc) == familyVPx {
			// constant-quality mode
			args = append(args, "-b:v", "0")
		}
	}
	return append(args, presetArgs(vc, s.Preset)...)
}

// resolveAudio returns the audio codec to emit, codec.None for a dropped
// stream or codec.Copy for passthrough.
func resolveAudio(s model.Settings, videoCopy bool) string {
	switch s.AudioCodec {
	case codec.None, codec.Copy:
		return s.AudioCodec
	}
	defaulted := s.AudioCodec == "" || s.AudioCodec == codec.Auto
	if videoCopy && !s.IsAudioOnly() && defaulted {
		return codec.Copy
	}
	ac, ok := codec.Resolve(codec.KindAudio, s.AudioCodec, s.Format)
	if !ok {
		return codec.None
	}
	return ac
}

func appendIf(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}

// isSet reports whether a trim timestamp is present and not the zero
// timestamp ("0", "00:00:00", "0.000" ...).
func isSet(ts string) bool {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return false
	}
	return strings.Trim(ts, "0:.") != ""
}
