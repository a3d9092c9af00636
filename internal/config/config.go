// Package config assembles runtime configuration from environment
// variables, an optional YAML file and CLI flags, in that order of
// precedence (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the reporter needs for one run.
type Config struct {
	// Email delivery
	SenderEmail    string `yaml:"sender_email"`
	RecipientEmail string `yaml:"recipient_email"`
	SESRegion      string `yaml:"ses_region"`
	SESProfile     string `yaml:"ses_profile"`

	// Collection scope. Empty Profiles means discover from the shared
	// credentials file; empty Regions means discover via DescribeRegions.
	Profiles        []string `yaml:"profiles"`
	Regions         []string `yaml:"regions"`
	CredentialsFile string   `yaml:"credentials_file"`

	// Collection behavior
	SSMTimeout   time.Duration `yaml:"ssm_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollAttempts int           `yaml:"poll_attempts"`
	Workers      int           `yaml:"workers"`

	// Analysis
	WindowDays int `yaml:"window_days"`

	// Storage and logging
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`
}

// Load builds a Config from environment variables, then overlays the YAML
// file at path when path is non-empty.
func Load(path string) (*Config, error) {
	cfg := &Config{
		SenderEmail:     getEnv("REPORT_SENDER_EMAIL", "no-reply@example.com"),
		RecipientEmail:  getEnv("REPORT_RECIPIENT_EMAIL", ""),
		SESRegion:       getEnv("REPORT_SES_REGION", "us-east-1"),
		SESProfile:      getEnv("REPORT_SES_PROFILE", "default"),
		CredentialsFile: getEnv("AWS_SHARED_CREDENTIALS_FILE", defaultCredentialsFile()),
		SSMTimeout:      getEnvDuration("REPORT_SSM_TIMEOUT", 45*time.Second),
		PollInterval:    3 * time.Second,
		PollAttempts:    15,
		Workers:         getEnvInt("REPORT_WORKERS", 5),
		WindowDays:      getEnvInt("REPORT_WINDOW_DAYS", 30),
		DataDir:         getEnv("REPORT_DATA_DIR", "usage_data"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	if c.RecipientEmail == "" {
		return fmt.Errorf("recipient email must be set (REPORT_RECIPIENT_EMAIL or config file)")
	}
	if c.SenderEmail == "" {
		return fmt.Errorf("sender email must be set")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.WindowDays < rightsizeMinWindow {
		return fmt.Errorf("window days must be at least %d, got %d", rightsizeMinWindow, c.WindowDays)
	}
	if c.SSMTimeout < time.Second {
		return fmt.Errorf("ssm timeout must be at least 1s, got %s", c.SSMTimeout)
	}
	return nil
}

// A window shorter than a week can never satisfy the analyzer's minimum
// sample count.
const rightsizeMinWindow = 7

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "credentials")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
