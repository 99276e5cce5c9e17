package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".loopdeck"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("LOOPDECK_CONFIG")); explicit != "" {
		return expandHome(explicit)
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("LOOPDECK_HOME")); h != "" {
		return expandHome(h)
	}
	return os.UserHomeDir()
}

// Load reads the config file (if present), then applies LOOPDECK_* env
// overrides. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	LoadEnvFileCandidates()

	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return DefaultConfig(), err
		}
	}
	envconfig.Process("LOOPDECK_PATHS", &cfg.Paths)
	envconfig.Process("LOOPDECK_IDENTITY", &cfg.Identity)
	envconfig.Process("LOOPDECK_REGISTRY", &cfg.Registry)
	envconfig.Process("LOOPDECK_JOURNAL", &cfg.Journal)
	return cfg, nil
}
