// Command anonymizerd runs the anonymizer HTTP server in the foreground.
// The config file is taken from ANONYMIZER_CONFIG, then the default locations.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"anonymizer/internal/config"
	"anonymizer/internal/daemonrun"
)

func main() {
	if _, err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load env file: %v", err)
	}

	cfg, _, _, err := config.Load(configPathFromEnv())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Fatalf("anonymizerd: %v", err)
	}
}

func configPathFromEnv() string {
	return strings.TrimSpace(os.Getenv("ANONYMIZER_CONFIG"))
}
