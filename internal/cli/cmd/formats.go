package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidconv/internal/codec"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "formats",
		Short:         "List output formats and their default codecs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderFormats())
			return nil
		},
	}
}

func renderFormats() string {
	var rows [][]string
	for _, f := range codec.Formats() {
		d, _ := codec.Lookup(f)
		video, audio := d.Video, d.Audio
		if video == "" {
			video = "-"
		}
		if audio == "" {
			audio = "-"
		}
		rows = append(rows, []string{f, video, audio, codec.ContentType(f)})
	}
	return renderTable([]string{"Format", "Video", "Audio", "Content type"}, rows, nil)
}
