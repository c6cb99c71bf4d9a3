package app

import (
	"errors"
	"fmt"
)

// Config holds everything an App needs for a run. Engine settings left at
// zero fall back to the job file, then to the engine defaults.
type Config struct {
	JobPath string // hcl file or directory

	LogFormat  string
	LogLevel   string
	StatusPort int

	Workers          int
	QueueSize        int
	ProgressInterval int64
	Storage          string
	StoragePath      string
	Partitions       int
	FailFast         bool

	SocketURL       string
	SocketNamespace string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobPath == "" {
		return nil, errors.New("JobPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 0 || cfg.QueueSize < 0 || cfg.ProgressInterval < 0 || cfg.Partitions < 0 {
		return nil, fmt.Errorf("workers, queue size, progress interval and partitions must not be negative")
	}
	if cfg.StatusPort < 0 || cfg.StatusPort > 65535 {
		return nil, fmt.Errorf("invalid status port %d", cfg.StatusPort)
	}
	return &cfg, nil
}
