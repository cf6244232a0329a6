package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/roster/pkg/cmd"
	"github.com/dukex/roster/pkg/config"
	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/eventbus"
	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/wizardweb"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const defaultBackendTimeout = 10 * time.Second

// applyFlags overrides the file configuration with the flags set explicitly.
func applyFlags(cfg *config.Config, command *cli.Command) {
	overrides := []struct {
		flag   string
		target *string
	}{
		{"backend-url", &cfg.Backend.URL},
		{"api-token", &cfg.Backend.Token},
		{"draft-url", &cfg.Draft.URL},
		{"draft-ttl", &cfg.Draft.TTL},
		{"event-bus", &cfg.EventBus.Provider},
		{"kafka-brokers", &cfg.EventBus.Brokers},
		{"session-idle-timeout", &cfg.Sessions.IdleTimeout},
		{"janitor-schedule", &cfg.Sessions.JanitorSchedule},
		{"log-level", &cfg.Log.Level},
	}

	for _, o := range overrides {
		if command.IsSet(o.flag) {
			*o.target = command.String(o.flag)
		}
	}
}

// wizardRuntime owns the long lived collaborators of the wizard host.
type wizardRuntime struct {
	logger   *slog.Logger
	backend  draft.Backend
	eventBus eventbus.EventBus
	metrics  *wizardweb.Metrics
	manager  *wizardweb.Manager
}

func newRuntime(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer) (*wizardRuntime, error) {
	client, err := gateway.NewClient(cfg.Backend.URL,
		gateway.WithToken(cfg.Backend.Token),
		gateway.WithTracer(tracer),
		gateway.WithLogger(logger),
		gateway.WithHTTPClient(&http.Client{
			Timeout: config.ParseDuration(cfg.Backend.Timeout, defaultBackendTimeout),
		}),
	)
	if err != nil {
		return nil, err
	}

	backend, err := cmd.NewDraftBackend(cfg.Draft.URL, config.ParseDuration(cfg.Draft.TTL, 0))
	if err != nil {
		return nil, err
	}

	eventBus, err := cmd.NewEventBus(cfg.EventBus.Provider, cfg.EventBus.Brokers, serviceName, logger)
	if err != nil {
		_ = backend.Close()

		return nil, err
	}

	metrics := wizardweb.NewMetrics(serviceName)

	manager, err := wizardweb.NewManager(wizardweb.ManagerConfig{
		Backend:     backend,
		Gateway:     client,
		EventBus:    eventBus,
		Metrics:     metrics,
		Logger:      logger,
		Tracer:      tracer,
		IdleTimeout: config.ParseDuration(cfg.Sessions.IdleTimeout, 0),
	})
	if err != nil {
		_ = eventBus.Close()
		_ = backend.Close()

		return nil, fmt.Errorf("failed to start session manager: %w", err)
	}

	return &wizardRuntime{
		logger:   logger,
		backend:  backend,
		eventBus: eventBus,
		metrics:  metrics,
		manager:  manager,
	}, nil
}

func (r *wizardRuntime) Close(ctx context.Context) {
	r.manager.Shutdown(ctx)

	if err := r.eventBus.Close(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
	}

	if err := r.backend.Close(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to close draft backend", "error", err)
	}
}
