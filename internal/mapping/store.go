package mapping

import (
	"context"
	"fmt"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/config"
	"anonymizer/internal/environment"
	"anonymizer/internal/services"
)

// Store loads and saves the ORIGINAL→TOKEN table.
type Store interface {
	// Load returns the persisted mapping; a store with no data yields an
	// empty mapping, not an error.
	Load(ctx context.Context) (anonymize.Mapping, error)
	// Save persists forward. Existing entries missing from forward are kept
	// by database backends and dropped by the file backend, which rewrites
	// the whole file.
	Save(ctx context.Context, forward map[string]string) error
	// Location describes where the data lives, for logs and status output.
	Location() string
	Close() error
}

// ResolveBackend maps the configured backend to a concrete one. "auto"
// selects sqlite inside a container and the text file otherwise.
func ResolveBackend(cfg *config.Config, detector environment.Detector) string {
	backend := cfg.Storage.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	if backend == config.BackendAuto {
		if detector.RunningInContainer() {
			return config.BackendSQLite
		}
		return config.BackendFile
	}
	return backend
}

// Open constructs the store selected by configuration.
func Open(cfg *config.Config) (Store, error) {
	return OpenWithDetector(cfg, environment.Detector{})
}

// OpenWithDetector is Open with an explicit container detector.
func OpenWithDetector(cfg *config.Config, detector environment.Detector) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "mapping", "open", "config is required", nil)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	switch backend := ResolveBackend(cfg, detector); backend {
	case config.BackendFile:
		return NewFileStore(cfg.Storage.MappingFile), nil
	case config.BackendSQLite:
		store, err := OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRedis:
		store, err := OpenRedis(cfg.Storage.RedisURL, cfg.Storage.RedisKey)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "mapping", "open", fmt.Sprintf("unsupported backend %q", backend), nil)
	}
}
