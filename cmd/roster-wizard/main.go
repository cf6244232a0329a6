package main

import (
	"context"
	"os"

	"github.com/dukex/roster/pkg/config"
	"github.com/dukex/roster/pkg/log"
	"github.com/dukex/roster/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort = 9092
	serviceName = "roster-wizard"
)

func main() {
	logger := log.WithModule("wizard")

	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Host employee onboarding wizard sessions over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the wizard server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				Sources: cli.EnvVars("ROSTER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "Base URL of the employee backend",
				Sources: cli.EnvVars("ROSTER_BACKEND_URL", "BACKEND_URL"),
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "Bearer token sent to the employee backend",
				Sources: cli.EnvVars("API_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "draft-url",
				Usage:   "Draft storage: memory://, a directory, file://<dir> or redis://...",
				Sources: cli.EnvVars("ROSTER_DRAFT_URL", "DRAFT_URL"),
			},
			&cli.StringFlag{
				Name:    "draft-ttl",
				Usage:   "Expiry of drafts kept in Redis, e.g. 72h",
				Sources: cli.EnvVars("ROSTER_DRAFT_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "session-idle-timeout",
				Usage:   "Close sessions unused for this long",
				Sources: cli.EnvVars("ROSTER_SESSION_IDLE_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "janitor-schedule",
				Usage:   "Cron schedule of the idle session sweep",
				Sources: cli.EnvVars("ROSTER_JANITOR_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := config.Load(command.String("config"))
			if err != nil {
				return err
			}

			applyFlags(cfg, command)

			if err := cfg.Validate(); err != nil {
				return err
			}

			log.SetupWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			logger = log.WithModule("wizard")

			logger.InfoContext(ctx, "Initializing Roster Wizard", "backend", cfg.Backend.URL)

			tracer := otelhelper.NoopTracer()
			if otelhelper.Enabled() {
				tracer, err = otelhelper.NewTracer(ctx, serviceName)
				if err != nil {
					return err
				}
			}

			rt, err := newRuntime(cfg, logger, tracer)
			if err != nil {
				return err
			}

			defer rt.Close(context.WithoutCancel(ctx))

			if err := rt.manager.Subscribe(ctx); err != nil {
				return err
			}

			if err := rt.manager.StartJanitor(ctx, cfg.Sessions.JanitorSchedule); err != nil {
				return err
			}

			host := NewHost(logger, rt.manager, rt.metrics)

			err = host.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start wizard server", "error", err)
			}

			return err
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
