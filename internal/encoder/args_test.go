package encoder

import (
	"slices"
	"strings"
	"testing"

	"vidconv/internal/model"
)

func settings(mutate func(*model.Settings)) model.Settings {
	s := model.DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	return s
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name            string
		settings        model.Settings
		wantContains    []string
		wantNotContains []string
	}{
		{
			name:            "defaults mp4",
			settings:        settings(nil),
			wantContains:    []string{"-i in.mov", "-c:v libx264 -crf 23", "-c:a aac"},
			wantNotContains: []string{"-ss", "-to", "-vf", "-af", "-b:v", "-vn", "-an"},
		},
		{
			name: "x264 high quality",
			settings: settings(func(s *model.Settings) {
				s.VideoCodec = "libx264"
				s.Quality = model.QualityHigh
			}),
			wantContains:    []string{"-c:v libx264 -crf 18"},
			wantNotContains: []string{"-b:v"},
		},
		{
			name: "bitrate supersedes crf",
			settings: settings(func(s *model.Settings) {
				s.VideoCodec = "libx264"
				s.Quality = model.QualityHigh
				s.VideoBitrate = "2500k"
			}),
			wantContains:    []string{"-c:v libx264 -b:v 2500k"},
			wantNotContains: []string{"-crf"},
		},
		{
			name: "unknown tier uses medium",
			settings: settings(func(s *model.Settings) {
				s.Quality = "ultra"
			}),
			wantContains: []string{"-crf 23"},
		},
		{
			name: "webm constant quality",
			settings: settings(func(s *model.Settings) {
				s.Format = "webm"
				s.Quality = model.QualityLow
				s.Preset = "good"
			}),
			wantContains:    []string{"-c:v libvpx-vp9 -crf 40 -b:v 0 -deadline good", "-c:a libopus"},
			wantNotContains: []string{"-preset"},
		},
		{
			name: "x264 preset",
			settings: settings(func(s *model.Settings) {
				s.Preset = "veryfast"
			}),
			wantContains: []string{"-crf 23 -preset veryfast"},
		},
		{
			name: "quantizer family",
			settings: settings(func(s *model.Settings) {
				s.Format = "avi"
				s.Quality = model.QualityHighest
				s.Preset = "slow"
			}),
			wantContains:    []string{"-c:v mpeg4 -q:v 2", "-c:a libmp3lame"},
			wantNotContains: []string{"-crf", "-preset"},
		},
		{
			name: "mpeg2 shares quantizer table",
			settings: settings(func(s *model.Settings) {
				s.Format = "mpeg"
				s.Quality = model.QualityLowest
			}),
			wantContains: []string{"-c:v mpeg2video -q:v 13", "-c:a mp2"},
		},
		{
			name: "codec without quality mapping",
			settings: settings(func(s *model.Settings) {
				s.Format = "wmv"
			}),
			wantContains:    []string{"-c:v wmv2", "-c:a wmav2"},
			wantNotContains: []string{"-crf", "-q:v"},
		},
		{
			name: "audio only",
			settings: settings(func(s *model.Settings) {
				s.Format = "mp3"
				s.AudioBitrate = "192k"
				s.SampleRate = "44100"
				s.AudioChannels = "2"
				s.Resolution = "1280x720"
				s.Rotation = model.Rotate90
			}),
			wantContains:    []string{"-vn -c:a libmp3lame -b:a 192k -ar 44100 -ac 2"},
			wantNotContains: []string{"-c:v", "-crf", "-s ", "-vf"},
		},
		{
			name: "gif has no codec flag and no audio",
			settings: settings(func(s *model.Settings) {
				s.Format = "gif"
				s.AudioBitrate = "128k"
			}),
			wantContains:    []string{"-an"},
			wantNotContains: []string{"-c:v", "-crf", "-c:a", "-b:a"},
		},
		{
			name: "video copy defaults audio to copy",
			settings: settings(func(s *model.Settings) {
				s.VideoCodec = "copy"
				s.AudioBitrate = "128k"
			}),
			wantContains:    []string{"-c:v copy", "-c:a copy"},
			wantNotContains: []string{"-crf", "-b:a"},
		},
		{
			name: "video copy with explicit audio",
			settings: settings(func(s *model.Settings) {
				s.VideoCodec = "copy"
				s.AudioCodec = "libopus"
			}),
			wantContains: []string{"-c:v copy", "-c:a libopus"},
		},
		{
			name: "audio none",
			settings: settings(func(s *model.Settings) {
				s.AudioCodec = "none"
				s.AudioBitrate = "128k"
				s.Speed = 2
			}),
			wantContains:    []string{"-an"},
			wantNotContains: []string{"-c:a", "-b:a", "-af"},
		},
		{
			name: "video none drops the stream",
			settings: settings(func(s *model.Settings) {
				s.VideoCodec = "none"
			}),
			wantContains:    []string{"-vn", "-c:a aac"},
			wantNotContains: []string{"-c:v"},
		},
		{
			name: "passthrough video options",
			settings: settings(func(s *model.Settings) {
				s.Resolution = "1280x720"
				s.Framerate = "30"
				s.AspectRatio = "16:9"
			}),
			wantContains: []string{"-s 1280x720 -r 30 -aspect 16:9"},
		},
		{
			name: "rotation 180 chains two transposes",
			settings: settings(func(s *model.Settings) {
				s.Rotation = model.Rotate180
			}),
			wantContains: []string{"-vf transpose=1,transpose=1"},
		},
		{
			name: "rotation and speed share one filter chain",
			settings: settings(func(s *model.Settings) {
				s.Rotation = model.Rotate270
				s.Speed = 2
			}),
			wantContains: []string{"-vf transpose=2,setpts=0.5000*PTS", "-af atempo=2.0000"},
		},
		{
			name: "slow motion",
			settings: settings(func(s *model.Settings) {
				s.Speed = 0.25
			}),
			wantContains: []string{"-vf setpts=4.0000*PTS", "-af atempo=0.5000,atempo=0.5000"},
		},
		{
			name: "flip",
			settings: settings(func(s *model.Settings) {
				s.Rotation = model.RotateVFlip
			}),
			wantContains:    []string{"-vf vflip"},
			wantNotContains: []string{"setpts"},
		},
		{
			name: "zero trim timestamps ignored",
			settings: settings(func(s *model.Settings) {
				s.TrimStart = "00:00:00"
				s.TrimEnd = "0.000"
			}),
			wantNotContains: []string{"-ss", "-to"},
		},
		{
			name: "custom args before output",
			settings: settings(func(s *model.Settings) {
				s.CustomArgs = "  -movflags   +faststart "
			}),
			wantContains: []string{"-movflags +faststart out.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := BuildArgs("in.mov", "out.mp4", tt.settings)
			joined := strings.Join(args, " ")

			for _, want := range tt.wantContains {
				if !strings.Contains(joined, want) {
					t.Errorf("args missing %q: %s", want, joined)
				}
			}
			for _, notWant := range tt.wantNotContains {
				if strings.Contains(joined, notWant) {
					t.Errorf("args contain %q: %s", notWant, joined)
				}
			}

			if args[len(args)-1] != "out.mp4" {
				t.Errorf("last arg = %q, want output path", args[len(args)-1])
			}
		})
	}
}

func TestBuildArgs_TrimOrdering(t *testing.T) {
	s := settings(func(s *model.Settings) {
		s.TrimStart = "00:00:05"
		s.TrimEnd = "00:00:10"
	})
	args := BuildArgs("in.mov", "out.mp4", s)

	ss := slices.Index(args, "-ss")
	in := slices.Index(args, "-i")
	to := slices.Index(args, "-to")
	if ss < 0 || in < 0 || to < 0 {
		t.Fatalf("missing flags: %v", args)
	}
	if !(ss < in && in < to) {
		t.Errorf("want -ss before -i before -to, got %v", args)
	}
	if args[ss+1] != "00:00:05" || args[to+1] != "00:00:10" {
		t.Errorf("trim values misplaced: %v", args)
	}
}

func TestBuildArgs_FiltersAfterCodecFlags(t *testing.T) {
	s := settings(func(s *model.Settings) {
		s.VideoBitrate = "1M"
		s.Resolution = "640x360"
		s.Rotation = model.Rotate90
	})
	args := BuildArgs("in.mov", "out.mp4", s)
	vf := slices.Index(args, "-vf")
	for _, flag := range []string{"-c:v", "-b:v", "-s"} {
		if i := slices.Index(args, flag); i < 0 || i > vf {
			t.Errorf("%s at %d, want before -vf at %d: %v", flag, i, vf, args)
		}
	}
}

func TestBuildArgs_SingleResolvedCodecs(t *testing.T) {
	args := BuildArgs("in.mov", "out.webm", settings(func(s *model.Settings) { s.Format = "webm" }))
	count := func(flag string) int {
		n := 0
		for _, a := range args {
			if a == flag {
				n++
			}
		}
		return n
	}
	if count("-c:v") != 1 || count("-c:a") != 1 {
		t.Errorf("want exactly one -c:v and -c:a: %v", args)
	}
	if slices.Contains(args, "auto") {
		t.Errorf("unresolved auto in args: %v", args)
	}
}

func TestBuildArgs_Deterministic(t *testing.T) {
	s := settings(func(s *model.Settings) {
		s.Speed = 150
		s.Rotation = model.RotateHFlip
		s.CustomArgs = "-threads 2"
	})
	a := BuildArgs("a", "b.mp4", s)
	b := BuildArgs("a", "b.mp4", s)
	if !slices.Equal(a, b) {
		t.Errorf("BuildArgs not deterministic:\n%v\n%v", a, b)
	}
}
