package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidconv/internal/intake"
	"vidconv/internal/pipeline"
	"vidconv/internal/util"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan [files or dirs...]",
		Short:         "Print the ffmpeg arguments for each file without converting",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runPlan,
	}
	bindConvertFlags(cmd.Flags())
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if err := cfg.Convert.Validate(); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	recursive, _ := cmd.Flags().GetBool("recursive")
	files, err := intake.Collect(args, recursive)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	out := cmd.OutOrStdout()
	for _, st := range pipeline.Plan(files, cfg.Convert) {
		fmt.Fprintf(out, "# %s -> %s\n", st.Source, st.ResultName)
		fmt.Fprintln(out, util.ShellQuote("ffmpeg", st.Args))
	}
	return nil
}
