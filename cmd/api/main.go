package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/config"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/events"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/handler"
	chatservice "github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/presence"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/service/sweeper"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
)

type flags struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
}

func main() {
	if err := setupLogger("info", ""); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := &flags{}
	app := &cli.Command{
		Name:    "batepapo",
		Usage:   "Presence-tracked chat relay",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to YAML config file",
				Sources:     cli.EnvVars("BATEPAPO_CONFIG"),
				Value:       "config.yml",
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "dotenv file loaded before reading the environment",
				Value:       ".env",
				Destination: &f.EnvFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error); overrides LOG_LEVEL",
				Destination: &f.LogLevel,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return run(ctx, f)
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("batepapo exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	if err := godotenv.Load(f.EnvFile); err != nil {
		log.Debug().Err(err).Str("file", f.EnvFile).Msg("no env file, using process environment only")
	}

	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if err := setupLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	hub := events.NewHub(log.With().Str("component", "hub").Logger())
	defer hub.Close()

	publisher := events.Publisher(hub)
	if cfg.Events.KafkaEnabled() {
		kafka := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		defer func() {
			if err := kafka.Close(); err != nil {
				log.Warn().Err(err).Msg("close kafka writer")
			}
		}()
		publisher = events.Fanout(hub, kafka)
		log.Info().Strs("brokers", cfg.Events.KafkaBrokers).Str("topic", cfg.Events.KafkaTopic).Msg("kafka publishing enabled")
	}

	var (
		messageLog = chatservice.NewLog(st, publisher, log.With().Str("component", "log").Logger())
		registry   = presence.NewRegistry(st, messageLog, log.With().Str("component", "presence").Logger())
		relay      = chatservice.NewService(messageLog, st, registry, log.With().Str("component", "relay").Logger())
		sw         = sweeper.New(registry, messageLog, cfg.Presence.SweepInterval, cfg.Presence.StaleAfter,
			log.With().Str("component", "sweeper").Logger())
	)

	router := handler.NewRouter(handler.Services{
		Registry:     registry,
		Relay:        relay,
		Hub:          hub,
		Store:        st,
		StreamBuffer: cfg.Events.StreamBuffer,
	}, log.With().Str("component", "http").Logger())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("batepapo listening")
		return runServer(gctx, srv, hub)
	})
	g.Go(func() error {
		return sw.Run(gctx)
	})
	return g.Wait()
}

// runServer serves until ctx is cancelled, then shuts down gracefully. The hub
// is closed first so open streams end and Shutdown does not wait on them.
func runServer(ctx context.Context, srv *http.Server, hub *events.Hub) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupLogger(level, logFile string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = io.MultiWriter(output, file)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger().Level(parsedLevel)
	return nil
}
