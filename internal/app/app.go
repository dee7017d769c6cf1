// Package app wires the ColdScale components together and owns their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siddarth16/coldscale/internal/aiwriter"
	"github.com/siddarth16/coldscale/internal/api"
	"github.com/siddarth16/coldscale/internal/campaign"
	"github.com/siddarth16/coldscale/internal/config"
	"github.com/siddarth16/coldscale/internal/metrics"
	"github.com/siddarth16/coldscale/internal/sender"
	"github.com/siddarth16/coldscale/internal/store"
)

// App is the main application
type App struct {
	config    *config.Config
	store     *store.Store
	settings  *store.SettingsStore
	manager   *campaign.Manager
	queue     *sender.Queue
	apiServer *api.Server
	logger    *slog.Logger

	unsubscribe func()
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	contacts := store.NewContactStore(st)
	campaigns := store.NewCampaignStore(st)
	templates := store.NewTemplateStore(st)
	settings := store.NewSettingsStore(st)

	manager := campaign.NewManager(campaigns, contacts, logger.With("component", "campaigns"))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	simulated := sender.NewSimulated(sender.SimulatedConfig{
		MinLatency:  cfg.Sender.MinLatency,
		MaxLatency:  cfg.Sender.MaxLatency,
		FailureRate: cfg.Sender.FailureRate,
	})

	queue := sender.NewQueue(sender.QueueConfig{
		Simulated: simulated,
		Live:      liveSender(cfg, settings, logger),
		Manager:   manager,
		Metrics:   m,
		Logger:    logger,
		Delay:     cfg.Sender.SendDelay,
	})

	ai := aiwriter.NewClient(aiwriter.Config{
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Timeout:  cfg.AI.Timeout,
	}, logger)

	apiServer := api.NewServer(api.Deps{
		Config:    &cfg.Server,
		Contacts:  contacts,
		Templates: templates,
		Settings:  settings,
		Manager:   manager,
		Queue:     queue,
		AI:        ai,
		Metrics:   m,
		Logger:    logger.With("component", "api"),
	})

	a := &App{
		config:    cfg,
		store:     st,
		settings:  settings,
		manager:   manager,
		queue:     queue,
		apiServer: apiServer,
		logger:    logger,
	}

	// Saved SMTP settings take effect without a restart.
	a.unsubscribe = settings.Subscribe(func() {
		queue.SetLive(liveSender(cfg, settings, logger))
	})

	return a, nil
}

// liveSender builds the live SMTP sender when the operator runs in live
// mode and usable SMTP settings are stored; otherwise nil and everything
// goes through the simulated path.
func liveSender(cfg *config.Config, settings *store.SettingsStore, logger *slog.Logger) sender.Sender {
	if cfg.Sender.Mode != "live" {
		return nil
	}
	smtpCfg, err := settings.SMTP()
	if err != nil {
		logger.Error("failed to load SMTP settings", "error", err)
		return nil
	}
	if smtpCfg == nil || len(smtpCfg.Validate()) > 0 {
		logger.Warn("live mode configured but SMTP settings incomplete, using simulated sender")
		return nil
	}
	return sender.NewSMTP(smtpCfg, logger)
}

// Run starts all components and waits for shutdown
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting coldscale",
		"api_addr", a.config.Server.ListenAddr,
		"storage", a.config.Storage.Path,
		"sender_mode", a.config.Sender.Mode,
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("server error", "error", err)
		cancel()
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all components
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop dequeuing first; an in-flight send finishes on its own.
	a.queue.Pause()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}

	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("storage close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
