package cmd

import (
	"github.com/spf13/cobra"

	"vidconv/internal/progress"
	"vidconv/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the conversion session over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := progress.NewSnapshot()
			a, err := newApp(cmd, snap)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.cfg.Convert.Validate(); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}

			srv := server.New(a.sess, snap,
				server.WithDefaults(a.cfg.Convert),
				server.WithLogger(a.logger),
			)
			if err := srv.ListenAndServe(cmd.Context(), a.cfg.Listen); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
	cmd.Flags().String("listen", "127.0.0.1:8080", "HTTP listen address")
	bindConvertFlags(cmd.Flags())
	for _, name := range []string{"recursive", "no-ui"} {
		_ = cmd.Flags().MarkHidden(name)
	}
	return cmd
}
