package app

import (
	"context"
	"fmt"
	goruntime "runtime"

	"github.com/oklog/ulid/v2"
	"github.com/vk/dqgrid/internal/builder"
	"github.com/vk/dqgrid/internal/cluster"
	"github.com/vk/dqgrid/internal/compiler"
	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/listener"
	"github.com/vk/dqgrid/internal/runtime"
	"github.com/vk/dqgrid/internal/source"
	"github.com/vk/dqgrid/internal/storage"
)

// Run loads, builds and executes the job. Setup problems are returned as
// errors; component failures are recorded in the report.
func (a *App) Run(ctx context.Context) (*Report, error) {
	runID := ulid.Make().String()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	model, dec, err := a.loader.Load(ctx, a.config.JobPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	engine := a.engineSettings(model.Engine)

	j, err := builder.Build(ctx, model, a.registry, dec)
	if err != nil {
		return nil, fmt.Errorf("failed to build job: %w", err)
	}

	backend, err := storage.Open(storage.Kind(engine.Storage), engine.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close storage backend.", "error", err)
		}
	}()

	listeners := listener.Multi{listener.Log{}, a.progress}
	if a.config.FailFast {
		listeners = append(listeners, listener.FailFast{})
	}
	if a.config.SocketURL != "" {
		sock, err := listener.DialSocketIO(ctx, listener.DialOptions{URL: a.config.SocketURL, Namespace: a.config.SocketNamespace})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to progress server: %w", err)
		}
		defer sock.Disconnect()
		listeners = append(listeners, listener.NewSocketIO(sock, runID))
	}

	if a.config.StatusPort > 0 {
		a.startStatusServer(ctx, a.config.StatusPort)
		defer a.closeStatusServer(ctx)
	}

	opts := []runtime.Option{
		runtime.WithListener(listeners),
		runtime.WithWorkers(engine.Workers),
		runtime.WithQueueSize(engine.QueueSize),
		runtime.WithProgressInterval(engine.ProgressInterval),
		runtime.WithStorage(backend),
	}

	logger.Info("Starting job.", "job", j.Graph.Name(), "workers", engine.Workers, "partitions", engine.Partitions, "storage", engine.Storage)
	report := &Report{RunID: runID, Job: j.Graph.Name()}
	if engine.Partitions > 1 {
		err = a.runPartitioned(ctx, j, engine.Partitions, opts, report)
	} else {
		err = a.runLocal(ctx, j, opts, report)
	}
	if err != nil {
		return nil, err
	}
	report.Progress = a.progress.Snapshot()

	logger.Info("Job finished.", "job", report.Job, "successful", report.Successful, "results", len(report.Results), "errors", len(report.Errors))
	return report, nil
}

func (a *App) runLocal(ctx context.Context, j *builder.Job, opts []runtime.Option, report *Report) error {
	plan, err := compiler.Compile(ctx, j.Graph)
	if err != nil {
		return fmt.Errorf("failed to compile job: %w", err)
	}
	opts = append(opts, runtime.WithSources(j.Sources...))

	fut, runErr := runtime.New(plan, opts...).Process(ctx)
	if runtime.IsEscalation(runErr) {
		ctxlog.FromContext(ctx).Warn("Run stopped by an escalated component error.", "error", runErr)
	}

	report.Successful = fut.IsSuccessful()
	report.Results = make(map[string]component.Result)
	for c, r := range fut.Results() {
		report.Results[c.Name()] = r
	}
	for _, e := range fut.Errors() {
		report.Errors = append(report.Errors, e.Error())
	}
	if runErr != nil {
		report.Errors = append(report.Errors, runErr.Error())
	}
	return nil
}

func (a *App) runPartitioned(ctx context.Context, j *builder.Job, partitions int, opts []runtime.Option, report *Report) error {
	var total int64
	for _, s := range j.Sources {
		n, err := source.Count(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to count rows of %s: %w", s.Table(), err)
		}
		total = max(total, n)
	}

	mgr := &cluster.LocalManager{Sources: j.Sources, Options: opts}
	res, err := cluster.Run(ctx, mgr, j.Graph, total, partitions)
	if err != nil {
		return fmt.Errorf("partitioned run failed: %w", err)
	}
	report.Successful = res.IsSuccessful()
	report.Results = res.Results
	report.Partitions = res.Partitions
	for _, e := range res.Errors {
		if runtime.IsEscalation(e) {
			ctxlog.FromContext(ctx).Warn("Partition stopped by an escalated component error.", "error", e)
		}
		report.Errors = append(report.Errors, e.Error())
	}
	return nil
}

// engineSettings resolves each setting from the CLI, then the job file,
// then the engine default.
func (a *App) engineSettings(file config.Engine) config.Engine {
	out := file
	if a.config.Workers > 0 {
		out.Workers = a.config.Workers
	}
	if a.config.QueueSize > 0 {
		out.QueueSize = a.config.QueueSize
	}
	if a.config.ProgressInterval > 0 {
		out.ProgressInterval = a.config.ProgressInterval
	}
	if a.config.Storage != "" {
		out.Storage = a.config.Storage
		out.StoragePath = a.config.StoragePath
	}
	if a.config.Partitions > 0 {
		out.Partitions = a.config.Partitions
	}

	if out.Workers <= 0 {
		out.Workers = goruntime.NumCPU()
	}
	if out.QueueSize <= 0 {
		out.QueueSize = runtime.DefaultQueueSize
	}
	if out.ProgressInterval <= 0 {
		out.ProgressInterval = runtime.DefaultProgressInterval
	}
	if out.Storage == "" {
		out.Storage = string(storage.KindMemory)
	}
	return out
}
