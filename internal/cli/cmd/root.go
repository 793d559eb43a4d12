package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vidconv/internal/model"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitMissingDep     = 2
	ExitEngineLoad     = 3
	ExitConvertFailure = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vidconv [files...]",
		Short: "Convert video and audio files with ffmpeg",
		Long: "vidconv converts batches of local video and audio files into another container, " +
			"codec, quality, size, speed or orientation. Every file is converted in turn and a " +
			"failing file never stops the batch.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, convertMode{})
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("out-dir", "o", "", "Output directory (default: the user data dir)")
	pf.BoolP("verbose", "v", false, "Log engine commands and debug output")
	pf.String("ffmpeg", "", "Path to the ffmpeg binary")
	pf.String("ffprobe", "", "Path to the ffprobe binary")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console, json")
	pf.String("blob-store", "memory", "Where converted outputs are held before saving: memory, pebble")

	bindConvertFlags(root.Flags())

	root.AddCommand(newConvertCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newFormatsCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// bindConvertFlags declares the conversion settings flags. Defaults mirror
// model.DefaultSettings; config files and env override them unless a flag
// is set explicitly.
func bindConvertFlags(fs *pflag.FlagSet) {
	d := model.DefaultSettings()
	fs.StringP("format", "f", d.Format, "Output container format (see 'vidconv formats')")
	fs.String("video-codec", d.VideoCodec, "Video codec: auto, copy or an ffmpeg encoder name")
	fs.String("audio-codec", d.AudioCodec, "Audio codec: auto, copy, none or an ffmpeg encoder name")
	fs.StringP("quality", "q", string(d.Quality), "Quality tier: highest, high, medium, low, lowest")
	fs.String("video-bitrate", "", "Video bitrate, e.g. 2M (overrides quality)")
	fs.String("audio-bitrate", "", "Audio bitrate, e.g. 128k")
	fs.String("resolution", "", "Output size WxH, e.g. 1280x720")
	fs.String("framerate", "", "Output frame rate")
	fs.String("aspect-ratio", "", "Display aspect ratio, e.g. 16:9")
	fs.String("sample-rate", "", "Audio sample rate in Hz")
	fs.String("audio-channels", "", "Audio channel count")
	fs.Float64("speed", d.Speed, "Playback speed multiplier")
	fs.String("rotation", string(d.Rotation), "Rotation: none, 90, 180, 270, hflip, vflip")
	fs.String("trim-start", "", "Start timestamp, e.g. 00:00:05")
	fs.String("trim-end", "", "End timestamp")
	fs.String("preset", "", "Encoder speed preset")
	fs.String("custom-args", "", "Extra ffmpeg arguments, split on whitespace")
	fs.BoolP("recursive", "r", false, "Descend into directories")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}
