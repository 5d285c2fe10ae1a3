package testsupport

import (
	"path/filepath"
	"testing"

	"anonymizer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The server binds an ephemeral port and rate limiting is disabled unless an
// option enables it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.MappingFile = filepath.Join(base, "data", "mapping.txt")
	cfgVal.Storage.SQLitePath = filepath.Join(base, "data", "mapping.db")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.RateLimitRPS = 0
	cfgVal.Server.APIToken = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend selects the storage backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
	}
}

// WithAPIToken requires a bearer token on the API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithRateLimit enables per-client rate limiting.
func WithRateLimit(rps float64, burst int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.RateLimitRPS = rps
		b.cfg.Server.RateLimitBurst = burst
	}
}

// WithAllowedOrigins replaces the CORS allow list.
func WithAllowedOrigins(origins ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.AllowedOrigins = origins
	}
}

// WithMappingEntries seeds the mapping text file.
func WithMappingEntries(forward map[string]string) ConfigOption {
	return func(b *configBuilder) {
		WriteMappingFile(b.t, b.cfg.Storage.MappingFile, forward)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
