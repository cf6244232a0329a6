// Package cmd builds the shared infrastructure of the roster binaries from
// their command line configuration.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/roster/pkg/persistence"
	"github.com/dukex/roster/pkg/persistence/file"
	"github.com/dukex/roster/pkg/persistence/postgresql"
)

// NewPersistence opens the backend storage named by databaseURL: a
// postgres:// URL, a file:// URL or a bare directory path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, location := parseURL(databaseURL)

	switch provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		return p, nil
	case "file", "":
		if location == "" {
			return nil, fmt.Errorf("missing directory in database url %q", databaseURL)
		}

		return file.NewPersistence(location), nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider: %s", provider)
	}
}

// parseURL splits "scheme://rest". A string without a scheme is returned as
// the location with an empty scheme.
func parseURL(raw string) (string, string) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", raw
	}

	return scheme, rest
}
