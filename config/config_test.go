package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Services: ServicesConfig{
			AdmissionURL:   "http://localhost:9101",
			SynthesizerURL: "http://localhost:9103",
			ResolverURL:    "http://localhost:9100",
			OracleURL:      "http://localhost:9102",
			SinkURL:        "http://localhost:9104",
			WeightsURL:     "http://localhost:9100",
		},
		Validating: ValidatingConfig{
			MaxScoringCount: 3,
			ScoringInterval: Duration(10 * time.Minute),
		},
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Validating.BatchSize)
	assert.Equal(t, 2, cfg.Validating.ConcurrentForward)
	assert.Equal(t, 2, cfg.Validating.QueueSize)
	assert.Equal(t, 1, cfg.Validating.MaxConcurrentScoring)
	assert.Equal(t, 1.0, cfg.Validating.TopFraction)
	assert.Equal(t, 0.8, cfg.Validating.MaxCompressRate)
	assert.Equal(t, 4*time.Second, cfg.Validating.ForwardInterval.Std())
	assert.Equal(t, 360*time.Second, cfg.Validating.ScoringTimeout.Std())
	assert.Equal(t, 60*time.Second, cfg.Weights.Interval.Std())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing redis host", mutate: func(c *Config) { c.Redis.Host = "" }},
		{name: "missing admission url", mutate: func(c *Config) { c.Services.AdmissionURL = "" }},
		{name: "missing oracle url", mutate: func(c *Config) { c.Services.OracleURL = "" }},
		{name: "missing max scoring count", mutate: func(c *Config) { c.Validating.MaxScoringCount = 0 }},
		{name: "missing scoring interval", mutate: func(c *Config) { c.Validating.ScoringInterval = 0 }},
		{name: "scoring gate wider than cycle gate", mutate: func(c *Config) {
			c.Validating.ConcurrentForward = 2
			c.Validating.MaxConcurrentScoring = 3
		}},
		{name: "metrics enabled without port", mutate: func(c *Config) { c.Metrics.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	raw := `
redis:
  host: redis.internal
  port: 6380
  flush_on_start: true
services:
  admission_url: http://admission:9101
  synthesizer_url: http://synth:9103
  resolver_url: http://resolver:9100
  oracle_url: http://oracle:9102
  weights_url: http://chain:9100
validating:
  batch_size: 16
  concurrent_forward: 4
  max_scoring_count: 2
  scoring_interval: 10m
weights:
  interval: 90s
  network_id: 47
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "redis.internal:6380", cfg.Redis.GetRedisAddr())
	assert.True(t, cfg.Redis.FlushOnStart)
	assert.Equal(t, 16, cfg.Validating.BatchSize)
	assert.Equal(t, 4, cfg.Validating.ConcurrentForward)
	assert.Equal(t, 10*time.Minute, cfg.Validating.ScoringInterval.Std())
	assert.Equal(t, 90*time.Second, cfg.Weights.Interval.Std())
	assert.Equal(t, 47, cfg.Weights.NetworkID)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	raw := `
redis:
  host: localhost
services:
  admission_url: http://localhost:9101
  synthesizer_url: http://localhost:9103
  resolver_url: http://localhost:9100
  oracle_url: http://localhost:9102
  weights_url: http://localhost:9100
validating:
  max_scoring_count: 1
  scoring_interval: 5m
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv("REDIS_HOST", "override-host")
	t.Setenv("ORACLE_URL", "http://other-oracle:9102")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "override-host", cfg.Redis.Host)
	assert.Equal(t, "http://other-oracle:9102", cfg.Services.OracleURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
}
