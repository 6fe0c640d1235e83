package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envPollInterval    = "REMEDY_POLL_INTERVAL"
	envWorkloadsFile   = "REMEDY_WORKLOADS_FILE"
	envComposeFile     = "REMEDY_COMPOSE_FILE"
	envDockerHost      = "REMEDY_DOCKER_HOST"
	envSlackWebhookURL = "REMEDY_SLACK_WEBHOOK_URL"
	envAlertWebhookURL = "REMEDY_ALERT_WEBHOOK_URL"
	envHealthPort      = "REMEDY_HEALTH_PORT"
	envMetricsPort     = "REMEDY_METRICS_PORT"
	envDryRun          = "REMEDY_DRY_RUN"
	envLogLevel        = "REMEDY_LOG_LEVEL"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultHealthPort   = 8080
	defaultMetricsPort  = 9090
	defaultLogLevel     = "info"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	PollInterval    time.Duration
	WorkloadsFile   string
	ComposeFile     string
	DockerHost      string
	SlackWebhookURL string
	AlertWebhookURL string
	HealthPort      int
	MetricsPort     int
	DryRun          bool
	LogLevel        string
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env. No variable is
// required: with neither a workloads file nor a compose file the supervisor runs its
// built-in demo roster.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		PollInterval: defaultPollInterval,
		HealthPort:   defaultHealthPort,
		MetricsPort:  defaultMetricsPort,
		LogLevel:     defaultLogLevel,
	}

	if value, ok := lookupTrimmed(envPollInterval); ok {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envPollInterval, err)
		}
		if interval <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envPollInterval)
		}
		cfg.PollInterval = interval
	}

	if value, ok := lookupTrimmed(envWorkloadsFile); ok {
		cfg.WorkloadsFile = value
	}

	if value, ok := lookupTrimmed(envComposeFile); ok {
		cfg.ComposeFile = value
	}

	if value, ok := lookupTrimmed(envDockerHost); ok {
		cfg.DockerHost = value
	}

	if value, ok := lookupTrimmed(envSlackWebhookURL); ok {
		cfg.SlackWebhookURL = value
	}

	if value, ok := lookupTrimmed(envAlertWebhookURL); ok {
		cfg.AlertWebhookURL = value
	}

	if value, ok := lookupTrimmed(envHealthPort); ok {
		port, err := parsePort(value, envHealthPort)
		if err != nil {
			return Config{}, err
		}
		cfg.HealthPort = port
	}

	if value, ok := lookupTrimmed(envMetricsPort); ok {
		port, err := parsePort(value, envMetricsPort)
		if err != nil {
			return Config{}, err
		}
		cfg.MetricsPort = port
	}

	if value, ok := lookupTrimmed(envDryRun); ok {
		dryRun, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDryRun, err)
		}
		cfg.DryRun = dryRun
	}

	if value, ok := lookupTrimmed(envLogLevel); ok {
		cfg.LogLevel = value
	}

	if cfg.SlackWebhookURL != "" {
		if err := validateURL(cfg.SlackWebhookURL, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
	}

	if cfg.AlertWebhookURL != "" {
		if err := validateURL(cfg.AlertWebhookURL, envAlertWebhookURL); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func parsePort(value, name string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535", name)
	}
	return port, nil
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
