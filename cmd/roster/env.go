package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dukex/roster/pkg/cmd"
	"github.com/dukex/roster/pkg/config"
	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultBackendTimeout = 10 * time.Second
	defaultDraftDir       = ".roster/drafts"
)

// env holds what every subcommand needs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	gateway gateway.Gateway
	backend draft.Backend
	store   *draft.Store
	closers []io.Closer
}

func (e *env) Close() {
	if err := e.backend.Close(); err != nil {
		e.logger.Error("Failed to close draft backend", "error", err)
	}

	for _, c := range e.closers {
		_ = c.Close()
	}
}

// resolveConfig loads the file configuration and applies the flags set
// explicitly. The terminal keeps drafts on disk unless told otherwise.
func resolveConfig(command *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return nil, err
	}

	if command.String("config") == "" {
		cfg.Draft.URL = defaultDraftURL()
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"backend-url", &cfg.Backend.URL},
		{"api-token", &cfg.Backend.Token},
		{"draft-url", &cfg.Draft.URL},
		{"namespace", &cfg.Draft.Namespace},
		{"log-level", &cfg.Log.Level},
	}

	for _, o := range overrides {
		if command.IsSet(o.flag) {
			*o.target = command.String(o.flag)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultDraftURL() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "file://" + defaultDraftDir
	}

	return "file://" + filepath.Join(home, defaultDraftDir)
}

func setup(command *cli.Command) (*env, error) {
	cfg, err := resolveConfig(command)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}

	// the wizard owns the terminal, so logs only go to an explicit file
	var out io.Writer = io.Discard

	if path := command.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		out = f
		e.closers = append(e.closers, f)
	}

	log.SetupWriter(out, cfg.Log.Level, cfg.Log.Format)
	e.logger = log.WithModule("roster")

	e.gateway, err = gateway.NewClient(cfg.Backend.URL,
		gateway.WithToken(cfg.Backend.Token),
		gateway.WithLogger(e.logger),
		gateway.WithHTTPClient(&http.Client{
			Timeout: config.ParseDuration(cfg.Backend.Timeout, defaultBackendTimeout),
		}),
	)
	if err != nil {
		return nil, err
	}

	e.backend, err = cmd.NewDraftBackend(cfg.Draft.URL, config.ParseDuration(cfg.Draft.TTL, 0))
	if err != nil {
		return nil, err
	}

	e.store = draft.NewStore(e.backend, cfg.Draft.Namespace, draft.WithLogger(e.logger))

	return e, nil
}
