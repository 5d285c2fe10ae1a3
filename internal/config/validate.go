package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTokens(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind: %w", err)
	}
	if c.Server.RateLimitRPS < 0 {
		return errors.New("server.rate_limit_rps must be zero or positive")
	}
	if c.Server.RateLimitBurst < 0 {
		return errors.New("server.rate_limit_burst must be zero or positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendAuto:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required when storage.backend is \"redis\" (or set ANONYMIZER_REDIS_URL)")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (expected file, sqlite, redis or auto)", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateTokens() error {
	if c.Tokens.Length < minTokenLength || c.Tokens.Length > maxTokenLength {
		return fmt.Errorf("tokens.length must be between %d and %d", minTokenLength, maxTokenLength)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
