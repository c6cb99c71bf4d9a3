package runtime

import (
	"github.com/vk/dqgrid/internal/listener"
	"github.com/vk/dqgrid/internal/source"
	"github.com/vk/dqgrid/internal/storage"
	"github.com/vk/dqgrid/internal/taskrunner"
)

const (
	DefaultQueueSize        = 1024
	DefaultProgressInterval = 1000
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSources supplies the tables to read, matched by Table().
func WithSources(srcs ...source.Source) Option {
	return func(r *Runtime) {
		for _, s := range srcs {
			r.sources[s.Table()] = s
		}
	}
}

func WithListener(l listener.Listener) Option {
	return func(r *Runtime) {
		if l != nil {
			r.listener = l
		}
	}
}

// WithWorkers sets the width of the runtime's own task runner.
func WithWorkers(n int) Option {
	return func(r *Runtime) { r.workers = n }
}

func WithQueueSize(n int) Option {
	return func(r *Runtime) { r.queueSize = n }
}

// WithRunner shares an existing task runner. The runtime does not shut it
// down.
func WithRunner(tr *taskrunner.Runner) Option {
	return func(r *Runtime) { r.runner = tr }
}

// WithProgressInterval reports progress every n rows; zero reports only at
// the end of each table.
func WithProgressInterval(n int64) Option {
	return func(r *Runtime) { r.progressInterval = n }
}

// WithStorage hands a storage backend to component factories. Without it
// each run gets a fresh in-memory backend.
func WithStorage(b storage.Backend) Option {
	return func(r *Runtime) { r.storage = b }
}
