// Package config loads renderd configuration from an optional YAML
// file with environment variable expansion, plus RENDERD_* overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Every knob has a
// hardcoded default so a zero-config start works.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// WorkDir is the base directory for ephemeral workspaces.
	WorkDir string `yaml:"work_dir"`

	// MaxConcurrent caps tool invocations running at once.
	MaxConcurrent int `yaml:"max_concurrent"`

	Limits    Limits    `yaml:"limits"`
	Timeouts  Timeouts  `yaml:"timeouts"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Log       Log       `yaml:"log"`

	// Trace enables the stdout trace exporter.
	Trace bool `yaml:"trace"`
}

// Limits bounds request payloads and captured tool output.
type Limits struct {
	MaxResources     int   `yaml:"max_resources"`
	MaxResourceBytes int64 `yaml:"max_resource_bytes"`
	MaxTotalBytes    int64 `yaml:"max_total_bytes"`
	MaxOutputBytes   int64 `yaml:"max_output_bytes"`
}

// Timeouts bounds each tool invocation. Compilation gets a materially
// longer default than the others: LaTeX runs can legitimately take
// minutes on large documents.
type Timeouts struct {
	Compile     time.Duration `yaml:"compile"`
	Thumbnail   time.Duration `yaml:"thumbnail"`
	Clone       time.Duration `yaml:"clone"`
	GracePeriod time.Duration `yaml:"grace_period"`
	Shutdown    time.Duration `yaml:"shutdown"`
}

// RateLimit configures per-key admission control.
type RateLimit struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	MaxKeys     int           `yaml:"max_keys"`

	// RedisAddr switches the limiter to a shared Redis store when set.
	RedisAddr string `yaml:"redis_addr"`
	FailOpen  bool   `yaml:"fail_open"`
}

// Log configures structured logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:          ":8090",
		WorkDir:       os.TempDir() + "/renderd",
		MaxConcurrent: 8,
		Limits: Limits{
			MaxResources:     64,
			MaxResourceBytes: 10 << 20,
			MaxTotalBytes:    32 << 20,
			MaxOutputBytes:   1 << 20,
		},
		Timeouts: Timeouts{
			Compile:     3 * time.Minute,
			Thumbnail:   10 * time.Second,
			Clone:       45 * time.Second,
			GracePeriod: 5 * time.Second,
			Shutdown:    15 * time.Second,
		},
		RateLimit: RateLimit{
			MaxRequests: 30,
			Window:      time.Minute,
			MaxKeys:     10_000,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty),
// expands ${VAR} references, and applies RENDERD_* environment
// overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		expanded, err := ExpandEnv(string(raw))
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides select settings from the process environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RENDERD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("RENDERD_WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}
	if v := os.Getenv("RENDERD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RENDERD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RENDERD_REDIS_ADDR"); v != "" {
		cfg.RateLimit.RedisAddr = v
	}
	if v, ok := envInt("RENDERD_MAX_CONCURRENT"); ok {
		cfg.MaxConcurrent = v
	}
	if v, ok := envInt("RENDERD_RATE_LIMIT_MAX"); ok {
		cfg.RateLimit.MaxRequests = v
	}
	if v, ok := envDuration("RENDERD_RATE_LIMIT_WINDOW"); ok {
		cfg.RateLimit.Window = v
	}
	if v, ok := envDuration("RENDERD_COMPILE_TIMEOUT"); ok {
		cfg.Timeouts.Compile = v
	}
	if v, ok := envDuration("RENDERD_CLONE_TIMEOUT"); ok {
		cfg.Timeouts.Clone = v
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
