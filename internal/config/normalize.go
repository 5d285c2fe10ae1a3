package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeClient()
	if c.Tokens.Length == 0 {
		c.Tokens.Length = defaultTokenLength
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = Default().Paths.DataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultAPIBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("ANONYMIZER_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	seen := make(map[string]struct{}, len(c.Server.AllowedOrigins))
	for _, origin := range c.Server.AllowedOrigins {
		normalized := strings.TrimRight(strings.TrimSpace(origin), "/")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		origins = append(origins, normalized)
	}
	c.Server.AllowedOrigins = origins
	if c.Server.RateLimitBurst <= 0 && c.Server.RateLimitRPS > 0 {
		c.Server.RateLimitBurst = max(1, int(c.Server.RateLimitRPS))
	}
}

func (c *Config) normalizeStorage() error {
	var err error
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultBackend
	}
	if strings.TrimSpace(c.Storage.MappingFile) == "" {
		c.Storage.MappingFile = filepath.Join(c.Paths.DataDir, defaultMappingFile)
	}
	if c.Storage.MappingFile, err = expandPath(c.Storage.MappingFile); err != nil {
		return fmt.Errorf("storage.mapping_file: %w", err)
	}
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		c.Storage.SQLitePath = filepath.Join(c.Paths.DataDir, defaultSQLiteFile)
	}
	if c.Storage.SQLitePath, err = expandPath(c.Storage.SQLitePath); err != nil {
		return fmt.Errorf("storage.sqlite_path: %w", err)
	}
	c.Storage.RedisURL = strings.TrimSpace(c.Storage.RedisURL)
	if c.Storage.RedisURL == "" {
		if value, ok := os.LookupEnv("ANONYMIZER_REDIS_URL"); ok {
			c.Storage.RedisURL = strings.TrimSpace(value)
		}
	}
	c.Storage.RedisKey = strings.TrimSpace(c.Storage.RedisKey)
	if c.Storage.RedisKey == "" {
		c.Storage.RedisKey = defaultRedisKey
	}
	return nil
}

func (c *Config) normalizeClient() {
	c.Client.BaseURL = strings.TrimSpace(c.Client.BaseURL)
	if value, ok := os.LookupEnv("ANONYMIZER_API_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Client.BaseURL = strings.TrimSpace(value)
	}
	c.Client.BaseURL = strings.TrimRight(c.Client.BaseURL, "/")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
