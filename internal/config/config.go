package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Rating   RatingConfig   `yaml:"rating"`
	Output   OutputConfig   `yaml:"output"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Server   ServerConfig   `yaml:"server"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig configures the archive.org client.
type ArchiveConfig struct {
	BaseURL           string   `yaml:"base_url"`
	Collection        string   `yaml:"collection"`
	FeedURL           string   `yaml:"feed_url"`
	MaxRecordings     int      `yaml:"max_recordings"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	IncludeKeywords   []string `yaml:"include_keywords"`
	ExcludeKeywords   []string `yaml:"exclude_keywords"`
}

// RatingConfig configures report thresholds. The scoring weight table is
// fixed; only reporting-time cutoffs are tunable.
type RatingConfig struct {
	InclusionThreshold float64 `yaml:"inclusion_threshold"`
}

// OutputConfig configures the generated dataset file.
type OutputConfig struct {
	Path    string `yaml:"path"`
	Version string `yaml:"version"`
	Pretty  bool   `yaml:"pretty"`
}

// ScheduleConfig configures daemon intervals.
type ScheduleConfig struct {
	CollectInterval  string `yaml:"collect_interval"`
	GenerateInterval string `yaml:"generate_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ParseGenerateInterval returns the generate interval as time.Duration.
func (s ScheduleConfig) ParseGenerateInterval() time.Duration {
	d, err := time.ParseDuration(s.GenerateInterval)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./tapegrade.db"},
		Archive: ArchiveConfig{
			Collection:        "GratefulDead",
			MaxRecordings:     100,
			RequestsPerSecond: 1,
		},
		Rating: RatingConfig{
			InclusionThreshold: 2.5,
		},
		Output: OutputConfig{
			Path:    "ratings.json",
			Version: "1.0.0",
			Pretty:  true,
		},
		Schedule: ScheduleConfig{
			CollectInterval:  "6h",
			GenerateInterval: "12h",
		},
		Server: ServerConfig{Port: 8080},
		Alerts: AlertsConfig{},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TAPEGRADE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TAPEGRADE_COLLECTION"); v != "" {
		cfg.Archive.Collection = v
	}
	if v := os.Getenv("TAPEGRADE_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
