package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kanbanflow/internal/board"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURL = "http://127.0.0.1:8080"

	PolicyLastWriterWins = "last-writer-wins"
	PolicyRejectStale    = "reject-stale"
)

type Output string

const (
	OutputText Output = "text"
	OutputJSON Output = "json"
)

func isValidOutput(v string) bool {
	return v == string(OutputText) || v == string(OutputJSON)
}

type Config struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token,omitempty"`
	// Policy is how concurrent writes to one column are arbitrated.
	Policy string `yaml:"policy"`
	Output Output `yaml:"output"`
}

func DefaultConfig() Config {
	return Config{
		ServerURL: DefaultServerURL,
		Policy:    PolicyLastWriterWins,
		Output:    OutputText,
	}
}

func ConfigPath(home string) string {
	return filepath.Join(home, ".config", "kanbanflow", "config.yaml")
}

// LoadConfigFile reads path. A missing file yields an empty config.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfigFile writes cfg with owner-only permissions since it may hold a token.
func SaveConfigFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func ParseEnvConfig(env []string) Config {
	cfg := Config{}

	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "KANBANFLOW_SERVER_URL":
			cfg.ServerURL = value
		case "KANBANFLOW_TOKEN":
			cfg.Token = value
		case "KANBANFLOW_POLICY":
			cfg.Policy = value
		case "KANBANFLOW_OUTPUT":
			if isValidOutput(value) {
				cfg.Output = Output(value)
			}
		}
	}

	return cfg
}

// MergeConfig layers the sources; later ones win for every non-empty field.
func MergeConfig(layers ...Config) Config {
	var out Config
	for _, src := range layers {
		if v := strings.TrimSpace(src.ServerURL); v != "" {
			out.ServerURL = v
		}
		if src.Token != "" {
			out.Token = src.Token
		}
		if src.Policy != "" {
			out.Policy = src.Policy
		}
		if src.Output != "" {
			out.Output = src.Output
		}
	}
	return out
}

func parsePolicy(s string) (board.Policy, error) {
	switch s {
	case "", PolicyLastWriterWins:
		return board.LastWriterWins, nil
	case PolicyRejectStale:
		return board.RejectStale, nil
	}
	return 0, fmt.Errorf("unknown policy %q (want %s or %s)", s, PolicyLastWriterWins, PolicyRejectStale)
}
