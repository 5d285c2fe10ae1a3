package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"anonymizer/internal/config"
	"anonymizer/internal/daemon"
	"anonymizer/internal/environment"
	"anonymizer/internal/logging"
	"anonymizer/internal/mapping"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Ready, when set, is called with the bound address once the server listens.
	Ready func(addr string)
}

// Run starts the anonymizer server and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogFilePath()},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	detector := environment.Detector{}
	logEnvironmentSnapshot(logger, cfg, detector)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := mapping.OpenWithDetector(cfg, detector)
	if err != nil {
		logger.Error("open mapping store", logging.Error(err))
		return err
	}

	if sqliteStore, ok := store.(*mapping.SQLiteStore); ok && cfg.Storage.MigrateLegacyFile {
		migrateLegacyFile(signalCtx, logger, sqliteStore, cfg.Storage.MappingFile)
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("server start failed",
			logging.Error(err),
			logging.String("hint", "check server.bind and whether another instance holds the lock"),
		)
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d.Addr())
	}

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("anonymizer server shutting down")
		d.Stop()
		return nil
	})
	return group.Wait()
}

func migrateLegacyFile(ctx context.Context, logger *slog.Logger, store *mapping.SQLiteStore, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	imported, err := store.MigrateFromFile(ctx, path)
	if err != nil {
		logger.Warn("legacy mapping migration failed",
			logging.String("path", path),
			logging.Error(err),
		)
		return
	}
	if imported > 0 {
		logger.Info("legacy mapping migrated",
			logging.String("path", path),
			logging.Int("entries", imported),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logEnvironmentSnapshot(logger *slog.Logger, cfg *config.Config, detector environment.Detector) {
	if logger == nil || cfg == nil {
		return
	}
	backend := mapping.ResolveBackend(cfg, detector)
	location := cfg.Storage.MappingFile
	switch backend {
	case config.BackendSQLite:
		location = cfg.Storage.SQLitePath
	case config.BackendRedis:
		location = cfg.Storage.RedisKey
	}
	logger.Info("environment snapshot",
		logging.String("runtime", detector.Describe()),
		logging.String("storage_backend", backend),
		logging.String("mapping_location", location),
		logging.String("bind", cfg.Server.Bind),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Server.APIToken) != ""),
		logging.Int("token_length", cfg.Tokens.Length),
	)
}
