package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"anonymizer/internal/client"
	"anonymizer/internal/config"
	"anonymizer/internal/environment"
	"anonymizer/internal/mapping"
)

const checkTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace fails when the filesystem holding path has less than
// minBytes available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s available", formatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (below %s)", detail, formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckStorage opens the configured mapping store and loads it once.
func CheckStorage(ctx context.Context, cfg *config.Config) Result {
	const name = "Mapping storage"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	store, err := mapping.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open failed (%v)", err)}
	}
	defer store.Close()

	return storageCheck(checkCtx, name, store)
}

// pinger is implemented by network-backed stores.
type pinger interface {
	Ping(ctx context.Context) error
}

func storageCheck(ctx context.Context, name string, store mapping.Store) Result {
	if p, ok := store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (ping failed: %v)", store.Location(), err)}
		}
	}
	m, err := store.Load(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (load failed: %v)", store.Location(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", store.Location(), m.Len())}
}

// CheckAPI calls the health endpoint of the API at baseURL.
func CheckAPI(ctx context.Context, baseURL, token string) Result {
	const name = "Anonymizer API"

	c, err := client.New(baseURL, client.WithToken(token))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	health, err := c.Health(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", c.BaseURL(), summarizeAPIError(err))}
	}
	if !health.OK {
		return Result{Name: name, Detail: fmt.Sprintf("%s (reported not ok)", c.BaseURL())}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", c.BaseURL())}
}

// RunningInContainer reports the detected runtime. It never fails.
func RunningInContainer(detector environment.Detector) Result {
	return Result{Name: "Runtime", Passed: true, Detail: detector.Describe()}
}

func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "not reachable (run `anonymizer start`)"
	}
	return err.Error()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
