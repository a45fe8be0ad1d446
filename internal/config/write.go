package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zaczkows/fb4rasp/internal/errors"
)

// Config file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// document is the on-disk shape of Config. Durations are written as
// strings like "3s" so the file stays readable.
type document struct {
	Version  int                     `yaml:"version" toml:"version"`
	Refresh  refreshDocument         `yaml:"refresh" toml:"refresh"`
	Router   routerDocument          `yaml:"router" toml:"router"`
	Remotes  map[string]RemoteConfig `yaml:"remote,omitempty" toml:"remote,omitempty"`
	Display  DisplayConfig           `yaml:"display" toml:"display"`
	Touch    TouchConfig             `yaml:"touch" toml:"touch"`
	Shutdown ShutdownConfig          `yaml:"shutdown" toml:"shutdown"`
	Metrics  MetricsConfig           `yaml:"metrics" toml:"metrics"`
	Agent    AgentConfig             `yaml:"agent" toml:"agent"`
	Rules    []RuleConfig            `yaml:"rules,omitempty" toml:"rules,omitempty"`
}

type refreshDocument struct {
	Draw   string `yaml:"draw" toml:"draw"`
	Net    string `yaml:"net" toml:"net"`
	Touch  string `yaml:"touch" toml:"touch"`
	Remote string `yaml:"remote" toml:"remote"`
}

type routerDocument struct {
	Enable          bool   `yaml:"enable" toml:"enable"`
	Address         string `yaml:"address" toml:"address"`
	Interface       string `yaml:"interface" toml:"interface"`
	Timeout         string `yaml:"timeout" toml:"timeout"`
	InsecureHostKey bool   `yaml:"insecure_host_key,omitempty" toml:"insecure_host_key,omitempty"`
}

func toDocument(cfg *Config) document {
	return document{
		Version: cfg.Version,
		Refresh: refreshDocument{
			Draw:   cfg.Refresh.Draw.String(),
			Net:    cfg.Refresh.Net.String(),
			Touch:  cfg.Refresh.Touch.String(),
			Remote: cfg.Refresh.Remote.String(),
		},
		Router: routerDocument{
			Enable:          cfg.Router.Enable,
			Address:         cfg.Router.Address,
			Interface:       cfg.Router.Interface,
			Timeout:         cfg.Router.Timeout.String(),
			InsecureHostKey: cfg.Router.InsecureHostKey,
		},
		Remotes:  cfg.Remotes,
		Display:  cfg.Display,
		Touch:    cfg.Touch,
		Shutdown: cfg.Shutdown,
		Metrics:  cfg.Metrics,
		Agent:    cfg.Agent,
		Rules:    cfg.Rules,
	}
}

// FormatFromPath picks the file format from the extension of path.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("Unsupported config file extension: %s", path),
		"Use a .yaml, .yml or .toml file")
}

// Marshal encodes cfg in the given format.
func Marshal(cfg *Config, format string) ([]byte, error) {
	doc := toDocument(cfg)
	var buf bytes.Buffer

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to encode config as YAML", "")
		}
		enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to encode config as TOML", "")
		}
	default:
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown config format %q", format),
			"Use yaml or toml")
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path in the format its extension names.
func Save(path string, cfg *Config) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(cfg, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check directory permissions")
	}
	return nil
}
