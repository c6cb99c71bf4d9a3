package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/dqgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes returned by the binary.
const (
	ExitUsage     = 2
	ExitJobFailed = 3
)

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("dqgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
dqgrid - A pluggable data-quality job engine.

Usage:
  dqgrid [options] [JOB_PATH]

Arguments:
  JOB_PATH
    Path to a single .hcl job file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobFlag := flagSet.String("job", "", "Path to the job file or directory.")
	jFlag := flagSet.String("j", "", "Path to the job file or directory (shorthand).")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server (/health, /progress). 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 0, "Number of task runner workers. 0 uses the job file or the CPU count.")
	queueFlag := flagSet.Int("queue-size", 0, "Task runner queue size. 0 uses the job file or the default.")
	progressFlag := flagSet.Int64("progress-interval", 0, "Report progress every N rows. 0 uses the job file or the default.")
	storageFlag := flagSet.String("storage", "", "Storage backend for large aggregates: 'memory' or 'sqlite'.")
	storagePathFlag := flagSet.String("storage-path", "", "Database file for the sqlite storage backend.")
	partitionsFlag := flagSet.Int("partitions", 0, "Split every table into N row ranges processed in parallel.")
	failFastFlag := flagSet.Bool("fail-fast", false, "Stop the run on the first component error.")
	socketURLFlag := flagSet.String("socketio-url", "", "socket.io server that receives run events. Empty is disabled.")
	socketNSFlag := flagSet.String("socketio-namespace", "/", "socket.io namespace for run events.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *jobFlag != "" {
		path = *jobFlag
	} else if *jFlag != "" {
		path = *jFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Job path determined.", "path", path)

	if path == "" {
		slog.Debug("No job path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	storageKind := strings.ToLower(*storageFlag)
	switch storageKind {
	case "", "memory":
	case "sqlite":
		if *storagePathFlag == "" {
			return nil, false, &ExitError{Code: ExitUsage, Message: "storage 'sqlite' requires -storage-path"}
		}
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid storage: must be 'memory' or 'sqlite'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		JobPath:          path,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		StatusPort:       *statusPortFlag,
		Workers:          *workersFlag,
		QueueSize:        *queueFlag,
		ProgressInterval: *progressFlag,
		Storage:          storageKind,
		StoragePath:      *storagePathFlag,
		Partitions:       *partitionsFlag,
		FailFast:         *failFastFlag,
		SocketURL:        *socketURLFlag,
		SocketNamespace:  *socketNSFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
