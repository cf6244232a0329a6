package cmd

import (
	"fmt"
	"time"

	"github.com/dukex/roster/pkg/draft"
	draftfile "github.com/dukex/roster/pkg/draft/file"
	"github.com/dukex/roster/pkg/draft/redisstore"
)

const draftKeyPrefix = "roster:draft"

// NewDraftBackend opens the draft storage named by draftURL: memory://,
// file://<dir> (or a bare directory) or redis://host:port/db. An empty URL
// selects memory. ttl only applies to Redis.
func NewDraftBackend(draftURL string, ttl time.Duration) (draft.Backend, error) {
	if draftURL == "" {
		return draft.NewMemoryBackend(), nil
	}

	scheme, location := parseURL(draftURL)

	switch scheme {
	case "memory":
		return draft.NewMemoryBackend(), nil
	case "", "file":
		if location == "" {
			return nil, fmt.Errorf("missing directory in draft url %q", draftURL)
		}

		return draftfile.NewBackend(location), nil
	case "redis", "rediss":
		backend, err := redisstore.NewFromURL(draftURL,
			redisstore.WithKeyPrefix(draftKeyPrefix),
			redisstore.WithTTL(ttl),
		)
		if err != nil {
			return nil, err
		}

		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported draft backend: %s", scheme)
	}
}
