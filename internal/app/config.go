package app

import (
	"errors"
	"fmt"
)

// Cache backend names accepted by Config.CacheBackend.
const (
	BackendFS     = "fs"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath string // .hcl file or directory

	CacheBackend string // fs, badger or memory
	CacheDir     string // backing directory for fs and badger

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	MaxPoints       int // design-space safety ceiling, 0 = default
}

// NewConfig validates a configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	switch cfg.CacheBackend {
	case BackendFS, BackendBadger, BackendMemory:
	case "":
		cfg.CacheBackend = BackendFS
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	if cfg.CacheBackend != BackendMemory && cfg.CacheDir == "" {
		cfg.CacheDir = ".designgrid-cache"
	}
	return &cfg, nil
}
