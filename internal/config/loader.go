package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zaczkows/fb4rasp/internal/errors"
)

const (
	// ConfigBaseName is the config file name without extension.
	ConfigBaseName = "fb4rasp"
	// GlobalConfigDir is the per-user config directory, relative to home.
	GlobalConfigDir = ".config/fb4rasp"
	// GlobalConfigBase is the per-user config file name without extension.
	GlobalConfigBase = "config"
)

// Extensions lists the supported config formats in lookup order.
var Extensions = []string{".yaml", ".yml", ".toml"}

// Load reads config from the specified path. The format follows the file
// extension.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'fb4rasp init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML or TOML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. fb4rasp.{yaml,yml,toml} in the current directory
// 3. ~/.config/fb4rasp/config.{yaml,yml,toml}
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}
	if p := firstExisting(cwd, ConfigBaseName); p != "" {
		return p, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		if p := firstExisting(filepath.Join(home, GlobalConfigDir), GlobalConfigBase); p != "" {
			return p, nil
		}
	}

	return "", nil
}

func firstExisting(dir, base string) string {
	for _, ext := range Extensions {
		p := filepath.Join(dir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadOrDefault loads the config found by Find(explicit), or returns
// defaults if none exists. The result is validated.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg := DefaultConfig()
	if path != "" {
		cfg, err = Load(path)
		if err != nil {
			return nil, path, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the syntax in "+path)
	}

	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]RemoteConfig)
	}
	for name, r := range cfg.Remotes {
		r.IP = strings.TrimSpace(r.IP)
		if r.Port == 0 {
			r.Port = DefaultRemotePort
		}
		cfg.Remotes[name] = r
	}

	return cfg, nil
}

// setDefaults registers every scalar default so partial files are filled in.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("refresh.draw", d.Refresh.Draw.String())
	v.SetDefault("refresh.net", d.Refresh.Net.String())
	v.SetDefault("refresh.touch", d.Refresh.Touch.String())
	v.SetDefault("refresh.remote", d.Refresh.Remote.String())
	v.SetDefault("router.enable", d.Router.Enable)
	v.SetDefault("router.address", d.Router.Address)
	v.SetDefault("router.interface", d.Router.Interface)
	v.SetDefault("router.timeout", d.Router.Timeout.String())
	v.SetDefault("display.layout", d.Display.Layout)
	v.SetDefault("display.history_samples", d.Display.HistorySamples)
	v.SetDefault("display.mode", d.Display.Mode)
	v.SetDefault("touch.enable", d.Touch.Enable)
	v.SetDefault("shutdown.command", d.Shutdown.Command)
	v.SetDefault("agent.listen", d.Agent.Listen)
}
