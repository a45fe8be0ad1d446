package doctor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zaczkows/fb4rasp/internal/config"
)

// ConfigFileCheck reports which config file is used.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check the --config path or run 'fb4rasp init'",
		}
	}
	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'fb4rasp init' to create fb4rasp.yaml",
		}
	}
	return pass(c, fmt.Sprintf("Config file: %s", filepath.Base(path)))
}

// ConfigSchemaCheck verifies that the config loads and validates.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return "CONFIG" }

func (c *ConfigSchemaCheck) Run(context.Context) CheckResult {
	cfg, _, err := config.LoadOrDefault(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Config is invalid: %v", err),
			Suggestion: "Fix the reported field, or recreate the file with 'fb4rasp init --force'",
		}
	}
	return pass(c, fmt.Sprintf("Config is valid (%d remote%s, %d rule%s)",
		len(cfg.Remotes), pluralize(len(cfg.Remotes)), len(cfg.Rules), pluralize(len(cfg.Rules))))
}
