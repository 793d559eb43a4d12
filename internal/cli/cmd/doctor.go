package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidconv/internal/util"
	"vidconv/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (ffmpeg, ffprobe)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			ff, err := deps.FindFFmpeg(cfg.FFmpeg)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FFmpeg:   %s (%s)\n", ff, version(cmd, ff))
			if fp, err := deps.FindFFprobe(cfg.FFprobe); err == nil {
				fmt.Fprintf(out, "FFprobe:  %s (%s)\n", fp, version(cmd, fp))
			} else {
				fmt.Fprintf(out, "FFprobe:  not found; progress will be indeterminate\n")
			}
			fmt.Fprintf(out, "Out dir:  %s\n", cfg.OutDir)
			fmt.Fprintf(out, "Blobs:    %s\n", cfg.BlobStore)
			return nil
		},
	}
}

// version returns the first line of "<bin> -version".
func version(cmd *cobra.Command, bin string) string {
	res, err := util.Run(cmd.Context(), util.CmdSpec{Path: bin, Args: []string{"-version"}, CaptureStdout: true})
	if err != nil {
		return "version unknown"
	}
	line, _, _ := strings.Cut(string(res.Stdout), "\n")
	return strings.TrimSpace(line)
}
