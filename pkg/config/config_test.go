package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/roster/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory://", cfg.Draft.URL)
	assert.Equal(t, "gochannel", cfg.EventBus.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  url: https://hr.example.com/api
  token: s3cret
draft:
  url: redis://localhost:6379/0
  namespace: tab-1
  ttl: 24h
event_bus:
  provider: kafka
  brokers: kafka-1:9092,kafka-2:9092
catalogs:
  roles:
    - id: eng
      name: Engineer
  paid_time_off:
    - id: vacation
      name: Vacation
      days_per_year: 20
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://hr.example.com/api", cfg.Backend.URL)
	assert.Equal(t, "10s", cfg.Backend.Timeout)
	assert.Equal(t, "tab-1", cfg.Draft.Namespace)
	assert.Equal(t, 24*time.Hour, config.ParseDuration(cfg.Draft.TTL, 0))
	assert.Equal(t, "kafka-1:9092,kafka-2:9092", cfg.EventBus.Brokers)
	require.Len(t, cfg.Catalogs.Roles, 1)
	assert.Equal(t, "Engineer", cfg.Catalogs.Roles[0].Name)
	require.Len(t, cfg.Catalogs.PaidTimeOff, 1)
	assert.Equal(t, 20, cfg.Catalogs.PaidTimeOff[0].DaysPerYear)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown key", yaml: "backend:\n  address: x\n"},
		{name: "bad url", yaml: "backend:\n  url: not a url\n"},
		{name: "kafka without brokers", yaml: "event_bus:\n  provider: kafka\n"},
		{name: "unknown provider", yaml: "event_bus:\n  provider: nats\n"},
		{name: "bad ttl", yaml: "draft:\n  ttl: tomorrow\n"},
		{name: "bad log level", yaml: "log:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Minute, config.ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, config.ParseDuration("soon", time.Minute))
	assert.Equal(t, 5*time.Second, config.ParseDuration("5s", time.Minute))
}
