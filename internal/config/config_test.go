package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	d := Default()
	assert.Equal(t, d.Checks, cfg.Checks)
	assert.Equal(t, d.Properties, cfg.Properties)
	assert.Equal(t, d.Title, cfg.Title)
	assert.Equal(t, d.Scoring, cfg.Scoring)
	assert.Equal(t, d.Scan.BatchSize, cfg.Scan.BatchSize)
	assert.Equal(t, d.Realtime.QuietPeriod, cfg.Realtime.QuietPeriod)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".docaudit.yaml")
	body := `
checks:
  reading_level: false
title:
  min: 20
duplicates:
  threshold: 90
realtime:
  quiet_period: 500ms
scoring:
  error_penalty: 20
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.False(t, cfg.Checks.ReadingLevel)
	assert.True(t, cfg.Checks.TitleLength)
	assert.Equal(t, 20, cfg.Title.Min)
	assert.Equal(t, 60, cfg.Title.Max)
	assert.Equal(t, 90.0, cfg.Duplicates.Threshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Realtime.QuietPeriod)
	assert.Equal(t, 20.0, cfg.Scoring.ErrorPenalty)
	assert.Equal(t, 5.0, cfg.Scoring.WarningPenalty)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"title bounds reversed", func(c *Config) { c.Title.Min = 70 }, false},
		{"threshold above 100", func(c *Config) { c.Duplicates.Threshold = 101 }, false},
		{"zero batch size", func(c *Config) { c.Scan.BatchSize = 0 }, false},
		{"negative penalty", func(c *Config) { c.Scoring.WarningPenalty = -1 }, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "s3" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Checks.HeadingOrder = false
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	// cache location does not change results
	c := Default()
	c.Cache.Dir = "/tmp/elsewhere"
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}
