package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"vidconv/internal/intake"
	"vidconv/internal/model"
	"vidconv/internal/progress"
	"vidconv/internal/session"
	"vidconv/internal/ui"
	"vidconv/internal/util"
	"vidconv/internal/util/format"
)

type convertMode struct {
	ForceTUI bool
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "convert [files or dirs...]",
		Short:         "Convert files and save the outputs to --out-dir",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, convertMode{})
		},
	}
	bindConvertFlags(cmd.Flags())
	return cmd
}

func runConvert(cmd *cobra.Command, args []string, mode convertMode) error {
	recursive, _ := cmd.Flags().GetBool("recursive")
	noUI, _ := cmd.Flags().GetBool("no-ui")

	files, err := intake.Collect(args, recursive)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	useTUI := mode.ForceTUI || (!noUI && isTerminal())
	var (
		tuiRep *ui.Reporter
		rep    progress.Reporter = newLineReporter(cmd.ErrOrStderr(), len(files))
	)
	if useTUI {
		tuiRep = ui.NewReporter()
		rep = tuiRep
	}

	a, err := newApp(cmd, rep)
	if err != nil {
		return err
	}
	defer a.Close()

	settings := a.cfg.Convert
	if err := settings.Validate(); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if err := util.EnsureDir(a.cfg.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %w", err)}
	}

	ctx := cmd.Context()
	added, err := a.sess.Dispatch(ctx, session.AddFiles{Files: files})
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	names := make([]string, len(added.Files))
	for i, f := range added.Files {
		names[i] = f.Name
	}

	convert := func(ctx context.Context) ([]model.Result, error) {
		out, err := a.sess.Dispatch(ctx, session.Convert{Settings: settings})
		return out.Results, err
	}
	var results []model.Result
	start := time.Now()
	if useTUI {
		results, err = ui.Run(ctx, names, tuiRep, convert)
	} else {
		results, err = convert(ctx)
	}
	if err != nil {
		return exitFor(err)
	}

	saved := saveResults(ctx, a, results)
	if useTUI {
		for _, p := range saved {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", p)
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderResults(results, saved))
	}

	ok, failed := model.Summary(results)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d converted, %d failed in %s\n", ok, failed, format.Elapsed(time.Since(start)))
	if failed > 0 {
		return &ExitError{Code: ExitConvertFailure, Err: fmt.Errorf("%d of %d conversions failed", failed, ok+failed)}
	}
	return nil
}

// saveResults writes each successful output to the out dir and releases its
// blob. A failed save turns the result into a failure. It returns the saved
// paths keyed by result index.
func saveResults(ctx context.Context, a *app, results []model.Result) map[int]string {
	saved := make(map[int]string, len(results))
	for i, r := range results {
		if !r.Success {
			continue
		}
		out, err := a.sess.Dispatch(ctx, session.SaveResult{Locator: r.Locator, Dir: a.cfg.OutDir})
		if err != nil {
			a.logger.Error("save failed", zap.String("name", r.Name), zap.Error(err))
			results[i].Success = false
			results[i].Error = "save: " + err.Error()
			continue
		}
		saved[r.Index] = out.SavedPath
	}
	return saved
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
