// Package config loads tool configuration from the .uialign state
// directory. Values are layered: built-in defaults, then config.yaml,
// then environment variables. The API key is environment-only so it
// can never end up committed alongside project state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/uialign/uialign/internal/retry"
)

const (
	// StateDirName is the per-project state directory.
	StateDirName = ".uialign"

	// FileName is the config file inside the state directory.
	FileName = "config.yaml"

	// DBFileName is the default run-history database.
	DBFileName = "uialign.db"
)

// Environment variable names.
const (
	EnvAPIKey    = "UIALIGN_API_KEY"
	EnvAPIKeyAlt = "OPENAI_API_KEY"
	EnvBaseURL   = "UIALIGN_BASE_URL"
	EnvModel     = "UIALIGN_MODEL"
	EnvProxy     = "UIALIGN_PROXY"
)

// Config is the full tool configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Loop    LoopConfig    `yaml:"loop"`
	Overlay OverlayConfig `yaml:"overlay"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Serve   ServeConfig   `yaml:"serve"`
}

// APIConfig locates the vision endpoint.
type APIConfig struct {
	// BaseURL points at an OpenAI-compatible API root.
	BaseURL string `yaml:"base_url"`

	// Model is the vision-capable model name.
	Model string `yaml:"model"`

	// TimeoutSeconds bounds a single HTTP request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Proxy is an optional socks5:// or http:// proxy URL.
	Proxy string `yaml:"proxy,omitempty"`

	// Detail is the image detail hint sent with screenshots.
	Detail string `yaml:"detail"`
}

// LoopConfig tunes the feedback loop.
type LoopConfig struct {
	// MaxCycles is the hard ceiling on feedback cycles per run.
	MaxCycles int `yaml:"max_cycles"`

	// MaxRetries is how many times a cycle re-asks after an
	// unparseable response, beyond the first attempt.
	MaxRetries int `yaml:"max_retries"`

	// AccuracyTarget stops the run early when the model reports at
	// least this overall accuracy with nothing left to correct.
	AccuracyTarget int `yaml:"accuracy_target"`

	// ConsecutiveFailureLimit stops the run after this many cycles
	// in a row failed to parse.
	ConsecutiveFailureLimit int `yaml:"consecutive_failure_limit"`

	// NudgeStep is the pixel distance one nudge moves a box.
	NudgeStep int `yaml:"nudge_step"`

	// Retry backoff between failed vision requests.
	RetryBaseMS int  `yaml:"retry_base_ms"`
	RetryMaxMS  int  `yaml:"retry_max_ms"`
	RetryJitter bool `yaml:"retry_jitter"`
}

// OverlayConfig tunes annotation rendering.
type OverlayConfig struct {
	// LineWidth is the rectangle outline thickness in pixels.
	LineWidth int `yaml:"line_width"`

	// DrawCrosshairs toggles the quadrant cross through each box.
	DrawCrosshairs bool `yaml:"draw_crosshairs"`

	// DrawLabels toggles the button number beside each box.
	DrawLabels bool `yaml:"draw_labels"`
}

// StoreConfig locates run history.
type StoreConfig struct {
	// Path overrides the database location. Relative paths resolve
	// under the state directory.
	Path string `yaml:"path,omitempty"`
}

// LogConfig tunes logging.
type LogConfig struct {
	// Level is the console verbosity: debug, info, warn, error.
	Level string `yaml:"level"`

	// TraceFile enables the JSONL trace. Relative paths resolve
	// under the state directory. Empty disables tracing.
	TraceFile string `yaml:"trace_file,omitempty"`
}

// ServeConfig tunes the HTTP service.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o",
			TimeoutSeconds: 60,
			Detail:         "high",
		},
		Loop: LoopConfig{
			MaxCycles:               3,
			MaxRetries:              2,
			AccuracyTarget:          90,
			ConsecutiveFailureLimit: 2,
			NudgeStep:               10,
			RetryBaseMS:             1000,
			RetryMaxMS:              8000,
		},
		Overlay: OverlayConfig{
			LineWidth:      3,
			DrawCrosshairs: true,
			DrawLabels:     true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Serve: ServeConfig{
			Addr: ":8787",
		},
	}
}

// Dir returns the state directory under root.
func Dir(root string) string {
	return filepath.Join(root, StateDirName)
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(Dir(root), FileName)
}

// Load reads configuration for the project at root. A missing config
// file is not an error; defaults plus environment apply.
func Load(root string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(root))
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", Path(root), err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", Path(root), err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.API.Model = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.API.Proxy = v
	}
}

// Validate rejects configurations the loop cannot run with.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Model == "" {
		return fmt.Errorf("api.model must not be empty")
	}
	if c.API.TimeoutSeconds < 1 {
		return fmt.Errorf("api.timeout_seconds must be at least 1, got %d", c.API.TimeoutSeconds)
	}
	switch c.API.Detail {
	case "low", "high", "auto":
	default:
		return fmt.Errorf("api.detail must be low, high or auto, got %q", c.API.Detail)
	}
	if c.Loop.MaxCycles < 1 || c.Loop.MaxCycles > 10 {
		return fmt.Errorf("loop.max_cycles must be in 1..10, got %d", c.Loop.MaxCycles)
	}
	if c.Loop.MaxRetries < 0 || c.Loop.MaxRetries > 5 {
		return fmt.Errorf("loop.max_retries must be in 0..5, got %d", c.Loop.MaxRetries)
	}
	if c.Loop.AccuracyTarget < 1 || c.Loop.AccuracyTarget > 100 {
		return fmt.Errorf("loop.accuracy_target must be in 1..100, got %d", c.Loop.AccuracyTarget)
	}
	if c.Loop.ConsecutiveFailureLimit < 1 {
		return fmt.Errorf("loop.consecutive_failure_limit must be at least 1, got %d", c.Loop.ConsecutiveFailureLimit)
	}
	if c.Loop.NudgeStep < 1 || c.Loop.NudgeStep > 200 {
		return fmt.Errorf("loop.nudge_step must be in 1..200, got %d", c.Loop.NudgeStep)
	}
	if c.Overlay.LineWidth < 1 {
		return fmt.Errorf("overlay.line_width must be at least 1, got %d", c.Overlay.LineWidth)
	}
	return nil
}

// APIKey resolves the key from the environment.
func (c Config) APIKey() string {
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v
	}
	return os.Getenv(EnvAPIKeyAlt)
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RetryPolicy builds the backoff policy for vision requests. Attempt
// count follows loop.max_retries: first try plus that many retries.
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Loop.MaxRetries + 1,
		BaseDelay:   time.Duration(c.Loop.RetryBaseMS) * time.Millisecond,
		MaxDelay:    time.Duration(c.Loop.RetryMaxMS) * time.Millisecond,
		Jitter:      c.Loop.RetryJitter,
	}
}

// DBPath resolves the run-history database location under root.
func (c Config) DBPath(root string) string {
	if c.Store.Path == "" {
		return filepath.Join(Dir(root), DBFileName)
	}
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(Dir(root), c.Store.Path)
}

// TracePath resolves the trace file location under root. Empty means
// tracing is disabled.
func (c Config) TracePath(root string) string {
	if c.Log.TraceFile == "" {
		return ""
	}
	if filepath.IsAbs(c.Log.TraceFile) {
		return c.Log.TraceFile
	}
	return filepath.Join(Dir(root), c.Log.TraceFile)
}
