package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iprasannamb/qosc/internal/config"
	"github.com/iprasannamb/qosc/internal/handlers"
	"github.com/iprasannamb/qosc/internal/logging"
	"github.com/iprasannamb/qosc/internal/playground"
)

const shutdownTimeout = 10 * time.Second

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run the playground HTTP API",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "port",
			Usage: "listen port, overrides the configuration",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	},
	Action: serve,
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sessionManager := playground.NewSessionManager(logger,
		playground.WithMaxSessions(cfg.Sessions.MaxSessions),
		playground.WithMaxQubits(cfg.Simulator.MaxQubits),
	)
	handler := handlers.NewPlaygroundHandler(sessionManager, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handlers.NewRouter(handler, logger, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Int("max_qubits", sessionManager.MaxQubits()),
			zap.Int("max_sessions", cfg.Sessions.MaxSessions),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessionManager.RunJanitor(ctx, cfg.Sessions.CleanupInterval)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
