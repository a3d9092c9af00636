package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "no-reply@example.com", cfg.SenderEmail)
	assert.Equal(t, "us-east-1", cfg.SESRegion)
	assert.Equal(t, 45*time.Second, cfg.SSMTimeout)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 15, cfg.PollAttempts)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, "usage_data", cfg.DataDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPORT_RECIPIENT_EMAIL", "ops@example.com")
	t.Setenv("REPORT_WORKERS", "8")
	t.Setenv("REPORT_SSM_TIMEOUT", "90s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", cfg.RecipientEmail)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.SSMTimeout)
}

func TestLoad_YAMLFileOverridesEnv(t *testing.T) {
	t.Setenv("REPORT_WORKERS", "8")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"recipient_email: team@example.com\nworkers: 3\nregions: [us-east-1, eu-west-1]\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "team@example.com", cfg.RecipientEmail)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, cfg.Regions)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SenderEmail:    "no-reply@example.com",
			RecipientEmail: "ops@example.com",
			Workers:        5,
			WindowDays:     30,
			SSMTimeout:     45 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing recipient", func(c *Config) { c.RecipientEmail = "" }, "recipient email"},
		{"missing sender", func(c *Config) { c.SenderEmail = "" }, "sender email"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"window too short", func(c *Config) { c.WindowDays = 6 }, "window days"},
		{"timeout too short", func(c *Config) { c.SSMTimeout = time.Millisecond }, "ssm timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
