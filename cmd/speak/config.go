package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vango-go/vai-speak/pkg/config"
)

// parseSpeakConfig loads the config file and SPEAK_* environment, then
// applies the flags that were set explicitly on the command line.
func parseSpeakConfig(name string, args []string, getenv func(string) string) (*config.Config, []string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	var (
		configPath  string
		aiURL       string
		authURL     string
		backend     string
		device      string
		sampleRate  int
		timeout     time.Duration
		logLevel    string
		logFormat   string
		metricsAddr string
		tokenFile   string
		language    string
	)

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&configPath, "config", "", "path to a YAML or JSON config file (or SPEAK_CONFIG)")
	fs.StringVar(&aiURL, "ai-url", "", "AI service base URL (or SPEAK_AI_URL)")
	fs.StringVar(&authURL, "auth-url", "", "auth service base URL (or SPEAK_AUTH_URL)")
	fs.StringVar(&backend, "capture", "", "microphone backend: malgo or ffmpeg")
	fs.StringVar(&device, "device", "", "capture device name")
	fs.IntVar(&sampleRate, "sample-rate", 0, "capture sample rate in Hz")
	fs.DurationVar(&timeout, "timeout", 0, "per-request timeout (e.g. 2m)")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&logFormat, "log-format", "", "console or json")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	fs.StringVar(&tokenFile, "token-file", "", "credential file written by `speak login`")
	fs.StringVar(&language, "lang", "", "language to select at startup")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(configPath, getenv)
	if err != nil {
		return nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ai-url":
			cfg.AIBaseURL = strings.TrimSpace(aiURL)
		case "auth-url":
			cfg.AuthBaseURL = strings.TrimSpace(authURL)
		case "capture":
			cfg.Capture.Backend = strings.ToLower(strings.TrimSpace(backend))
		case "device":
			cfg.Capture.Device = device
		case "sample-rate":
			cfg.Capture.SampleRate = sampleRate
		case "timeout":
			cfg.Timeout = config.Duration(timeout)
		case "log-level":
			cfg.LogLevel = logLevel
		case "log-format":
			cfg.LogFormat = logFormat
		case "metrics-addr":
			cfg.MetricsAddr = metricsAddr
		case "token-file":
			cfg.TokenFile = tokenFile
		case "lang":
			cfg.DefaultLanguage = language
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, fs.Args(), nil
}
