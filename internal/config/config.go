package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the console needs to reach the agent backend
// and to find its local state directory.
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	StateDir       string        `yaml:"state_dir"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 30 * time.Second
)

// Load builds the configuration from the optional YAML file at
// <config dir>/pm-console/config.yaml, with environment variables taking
// precedence over the file and built-in defaults filling the rest.
func Load() Config {
	cfg := Config{
		APIBaseURL:     defaultBaseURL,
		RequestTimeout: defaultTimeout,
	}

	if dir, err := os.UserConfigDir(); err == nil {
		cfg.StateDir = filepath.Join(dir, "pm-console")
		if data, err := os.ReadFile(filepath.Join(cfg.StateDir, "config.yaml")); err == nil {
			// A malformed file is ignored rather than fatal; defaults apply.
			_ = yaml.Unmarshal(data, &cfg)
		}
	}

	if v := os.Getenv("PM_CONSOLE_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("PM_CONSOLE_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("PM_CONSOLE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequestTimeout = time.Duration(n) * time.Second
		}
	}

	if cfg.StateDir == "" {
		cfg.StateDir = ".pm-console"
	}
	return cfg
}
