package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	vidconvcmd "vidconv/internal/cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := vidconvcmd.ExitOK
	if err := vidconvcmd.Execute(ctx); err != nil {
		code = vidconvcmd.ExitCLIError
		var ee *vidconvcmd.ExitError
		if errors.As(err, &ee) {
			code = ee.Code
			err = ee.Err
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	stop()
	os.Exit(code)
}
