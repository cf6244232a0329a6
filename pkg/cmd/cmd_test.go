package cmd_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/roster/pkg/cmd"
	"github.com/dukex/roster/pkg/draft"
	draftfile "github.com/dukex/roster/pkg/draft/file"
	"github.com/dukex/roster/pkg/draft/redisstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPersistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for _, url := range []string{dir, "file://" + dir} {
		p, err := cmd.NewPersistence(t.Context(), discardLogger(), url)
		require.NoError(t, err, url)
		require.NoError(t, p.HealthCheck(t.Context()))
	}

	_, err := cmd.NewPersistence(t.Context(), discardLogger(), "mongodb://localhost")
	require.Error(t, err)

	_, err = cmd.NewPersistence(t.Context(), discardLogger(), "file://")
	require.Error(t, err)
}

func TestNewDraftBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    any
		wantErr bool
	}{
		{name: "empty", url: "", want: &draft.MemoryBackend{}},
		{name: "memory", url: "memory://", want: &draft.MemoryBackend{}},
		{name: "file", url: "file://" + t.TempDir(), want: &draftfile.Backend{}},
		{name: "bare path", url: t.TempDir(), want: &draftfile.Backend{}},
		{name: "redis", url: "redis://localhost:6379/0", want: &redisstore.Backend{}},
		{name: "bad redis", url: "redis://localhost:6379/notadb", wantErr: true},
		{name: "unknown", url: "etcd://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend, err := cmd.NewDraftBackend(tt.url, time.Hour)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, backend)
			assert.NoError(t, backend.Close())
		})
	}
}

func TestNewEventBus(t *testing.T) {
	t.Parallel()

	bus, err := cmd.NewEventBus("gochannel", "", "roster-test", discardLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, bus.GenerateID())
	require.NoError(t, bus.Close())

	_, err = cmd.NewEventBus("kafka", "", "roster-test", discardLogger())
	require.Error(t, err)

	_, err = cmd.NewEventBus("nats", "", "roster-test", discardLogger())
	require.Error(t, err)
}
