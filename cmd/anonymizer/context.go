package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"anonymizer/internal/client"
	"anonymizer/internal/config"
)

type commandContext struct {
	configFlag  *string
	baseURLFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, baseURLFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		baseURLFlag: baseURLFlag,
	}
}

// ensureConfig loads .env from the working directory, then the config file.
// --base-url wins over both.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if _, err := config.LoadDotEnv(); err != nil {
			c.configErr = err
			return
		}
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.baseURLFlag != nil {
			if base := strings.TrimSpace(*c.baseURLFlag); base != "" {
				cfg.Client.BaseURL = base
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) apiClient() (*client.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	apiClient, err := client.New(cfg.BaseURL(), client.WithToken(cfg.Server.APIToken))
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return apiClient, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
