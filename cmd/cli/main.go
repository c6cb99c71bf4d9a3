package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/dqgrid/internal/app"
	"github.com/vk/dqgrid/internal/cli"
	"github.com/vk/dqgrid/internal/hcl"
)

// main is the entrypoint for the dqgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run parses arguments, runs the job and prints its report to outW. Logs go
// to logW.
func run(ctx context.Context, outW, logW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on programming errors such as an invalid component
	// catalog; report them as a regular failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	a := app.NewApp(logW, appConfig, hcl.NewLoader())
	report, err := a.Run(ctx)
	if err != nil {
		return err
	}
	if err := app.WriteReport(outW, report); err != nil {
		return err
	}
	if !report.Successful {
		return &cli.ExitError{Code: cli.ExitJobFailed, Message: fmt.Sprintf("job %q finished with %d error(s)", report.Job, len(report.Errors))}
	}
	return nil
}
