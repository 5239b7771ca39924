package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vango-go/vai-speak/internal/dotenv"
	"github.com/vango-go/vai-speak/pkg/auth"
	"github.com/vango-go/vai-speak/pkg/capture"
	"github.com/vango-go/vai-speak/pkg/chat"
	"github.com/vango-go/vai-speak/pkg/config"
	"github.com/vango-go/vai-speak/pkg/metrics"
	"github.com/vango-go/vai-speak/pkg/practice"
	speak "github.com/vango-go/vai-speak/sdk"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "speak: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "speak: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, in io.Reader, out, errOut io.Writer) error {
	command := "practice"
	if len(args) > 0 {
		switch args[0] {
		case "login", "logout", "register", "whoami", "practice":
			command, args = args[0], args[1:]
		}
	}

	cfg, rest, err := parseSpeakConfig("speak "+command, args, getenv)
	if err != nil {
		return err
	}

	var readPassword func() (string, error)
	if in == os.Stdin {
		readPassword = terminalPassword(out)
	}
	switch command {
	case "login":
		return runLogin(ctx, cfg, rest, in, out, readPassword)
	case "register":
		return runRegister(ctx, cfg, rest, in, out, readPassword)
	case "whoami":
		return runWhoami(ctx, cfg, out)
	case "logout":
		return runLogout(cfg, out)
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	return runSpeak(ctx, cfg, getenv, in, out, errOut)
}

// runSpeak wires the gateway client, microphone and sessions, then runs the
// REPL until input ends or ctx is cancelled.
func runSpeak(ctx context.Context, cfg *config.Config, getenv func(string) string, in io.Reader, out, errOut io.Writer) error {
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, errOut)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := tokenStore(cfg)
	if err != nil {
		return err
	}
	m := metrics.New("")

	client := speak.NewClient(
		speak.WithBaseURL(cfg.AIBaseURL),
		speak.WithTokenSource(auth.Chain{auth.EnvToken{Getenv: getenv}, store}),
		speak.WithLogger(logger),
		speak.WithMetrics(m),
	)

	recorder := capture.NewController(newCaptureSource(cfg, logger),
		capture.WithLogger(logger),
		capture.WithMetrics(m),
		capture.WithMaxDuration(cfg.Capture.MaxDuration.Std()),
	)

	session := practice.New(client.SentenceGenerator(), client.AudioScorer(), recorder,
		practice.WithLogger(logger),
		practice.WithMetrics(m),
	)
	defer session.Close()

	chatSession := chat.New(client.ChatGateway(),
		chat.WithLogger(logger),
		chat.WithMetrics(m),
	)
	defer chatSession.Close()

	a := newApp(session, chatSession, logger, cfg.Timeout.Std(), out, errOut)
	if cfg.DefaultLanguage != "" {
		a.selectLanguage(cfg.DefaultLanguage)
	}

	logger.Info("speak starting",
		zap.String("ai_url", client.BaseURL()),
		zap.String("capture", cfg.Capture.Backend),
		zap.String("session_id", session.ID()),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return a.run(gctx, in)
	})
	return g.Wait()
}

func newCaptureSource(cfg *config.Config, logger *zap.Logger) capture.Source {
	if strings.EqualFold(cfg.Capture.Backend, config.BackendFFmpeg) {
		return &capture.FFmpegSource{
			SampleRate: cfg.Capture.SampleRate,
			Device:     cfg.Capture.Device,
			Logger:     logger,
		}
	}
	return &capture.MalgoSource{
		SampleRate: cfg.Capture.SampleRate,
		Channels:   capture.DefaultChannels,
		Device:     cfg.Capture.Device,
		Logger:     logger,
	}
}
