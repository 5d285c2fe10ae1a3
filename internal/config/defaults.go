package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "anonymizer"

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendAuto   = "auto"
)

const (
	defaultAPIBind        = "127.0.0.1:8000"
	defaultRateLimitRPS   = 20
	defaultRateLimitBurst = 40
	defaultBackend        = BackendFile
	defaultMappingFile    = "mapping.txt"
	defaultSQLiteFile     = "mapping.db"
	defaultRedisKey       = "anonymizer:mapping"
	defaultTokenLength    = 8
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	minTokenLength        = 4
	maxTokenLength        = 64
)

var defaultAllowedOrigins = []string{"http://localhost:4200", "http://127.0.0.1:4200"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	xdg.Reload()
	dataDir := filepath.Join(xdg.DataHome, appName)
	return Config{
		Paths: Paths{
			DataDir: dataDir,
			LogDir:  filepath.Join(dataDir, "logs"),
		},
		Server: Server{
			Bind:           defaultAPIBind,
			AllowedOrigins: append([]string(nil), defaultAllowedOrigins...),
			RateLimitRPS:   defaultRateLimitRPS,
			RateLimitBurst: defaultRateLimitBurst,
		},
		Storage: Storage{
			Backend:  defaultBackend,
			RedisKey: defaultRedisKey,
		},
		Tokens: Tokens{
			Length: defaultTokenLength,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func configHome() string {
	xdg.Reload()
	return xdg.ConfigHome
}
