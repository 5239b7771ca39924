// Package config holds the speaking-practice client configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAIBaseURL   = "http://localhost:8002"
	DefaultAuthBaseURL = "http://localhost:8001"
	DefaultTimeout     = 2 * time.Minute
	DefaultSampleRate  = 16000
	DefaultMaxDuration = 60 * time.Second
)

// Capture backends.
const (
	BackendMalgo  = "malgo"
	BackendFFmpeg = "ffmpeg"
)

// Config holds all client configuration.
type Config struct {
	// Service endpoints
	AIBaseURL   string `json:"ai_url" yaml:"ai_url"`
	AuthBaseURL string `json:"auth_url" yaml:"auth_url"`

	// Per-request deadline for gateway calls.
	Timeout Duration `json:"timeout" yaml:"timeout"`

	Capture CaptureConfig `json:"capture" yaml:"capture"`

	// Credential file written by `speak login`. Empty means the default
	// path under the user config dir.
	TokenFile string `json:"token_file" yaml:"token_file"`

	// Language selected at startup, optional.
	DefaultLanguage string `json:"default_language" yaml:"default_language"`

	// Observability
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFormat   string `json:"log_format" yaml:"log_format"` // "console" or "json"
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// CaptureConfig configures the microphone source.
type CaptureConfig struct {
	Backend    string `json:"backend" yaml:"backend"` // "malgo" or "ffmpeg"
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Device     string `json:"device" yaml:"device"`

	// Recordings are finalized automatically after MaxDuration.
	MaxDuration Duration `json:"max_duration" yaml:"max_duration"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		AIBaseURL:   DefaultAIBaseURL,
		AuthBaseURL: DefaultAuthBaseURL,
		Timeout:     Duration(DefaultTimeout),
		Capture: CaptureConfig{
			Backend:     BackendMalgo,
			SampleRate:  DefaultSampleRate,
			MaxDuration: Duration(DefaultMaxDuration),
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// ApplyEnv overrides fields from SPEAK_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, name string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}

	set(&c.AIBaseURL, "SPEAK_AI_URL")
	set(&c.AuthBaseURL, "SPEAK_AUTH_URL")
	set(&c.Capture.Backend, "SPEAK_CAPTURE_BACKEND")
	set(&c.Capture.Device, "SPEAK_CAPTURE_DEVICE")
	set(&c.TokenFile, "SPEAK_TOKEN_FILE")
	set(&c.DefaultLanguage, "SPEAK_LANGUAGE")
	set(&c.LogLevel, "SPEAK_LOG_LEVEL")
	set(&c.LogFormat, "SPEAK_LOG_FORMAT")
	set(&c.MetricsAddr, "SPEAK_METRICS_ADDR")

	if v := strings.TrimSpace(getenv("SPEAK_SAMPLE_RATE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPEAK_SAMPLE_RATE: %w", err)
		}
		c.Capture.SampleRate = n
	}
	if v := strings.TrimSpace(getenv("SPEAK_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SPEAK_TIMEOUT: %w", err)
		}
		c.Timeout = Duration(d)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validateBaseURL("ai_url", c.AIBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("auth_url", c.AuthBaseURL); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	switch strings.ToLower(strings.TrimSpace(c.Capture.Backend)) {
	case BackendMalgo, BackendFFmpeg:
	default:
		return fmt.Errorf("capture backend must be %s or %s, got %q", BackendMalgo, BackendFFmpeg, c.Capture.Backend)
	}
	if c.Capture.SampleRate < 8000 || c.Capture.SampleRate > 48000 {
		return fmt.Errorf("capture sample_rate must be between 8000 and 48000, got %d", c.Capture.SampleRate)
	}
	if c.Capture.MaxDuration < 0 {
		return errors.New("capture max_duration must be >= 0")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	u, err := url.Parse(raw)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return fmt.Errorf("%s must be a valid absolute URL", name)
	}
	if u.User != nil {
		return fmt.Errorf("%s must not include credentials", name)
	}
	return nil
}

// Duration is a time.Duration that reads and writes strings like "90s" in
// YAML and JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
