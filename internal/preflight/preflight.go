package preflight

import (
	"context"

	"anonymizer/internal/config"
	"anonymizer/internal/environment"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinFreeBytes is the free space below which the data directory check fails.
const MinFreeBytes = 64 << 20

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		RunningInContainer(environment.Detector{}),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Free space", cfg.Paths.DataDir, MinFreeBytes),
		CheckStorage(ctx, cfg),
		CheckAPI(ctx, cfg.BaseURL(), cfg.Server.APIToken),
	}
	return results
}
