package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Download DownloadConfig `yaml:"download"`
	Worker   WorkerConfig   `yaml:"worker"`
	Trending TrendingConfig `yaml:"trending"`
}

// TelegramConfig holds bot transport configuration.
type TelegramConfig struct {
	Token       string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	PollTimeout int    `yaml:"poll_timeout" envconfig:"TELEGRAM_POLL_TIMEOUT" default:"30"`
	Debug       bool   `yaml:"debug" envconfig:"TELEGRAM_DEBUG" default:"false"`
}

// ServerConfig holds the liveness HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
}

// StorageConfig holds the transient download directory configuration.
type StorageConfig struct {
	DownloadDir string `yaml:"download_dir" envconfig:"DOWNLOAD_DIR" default:"downloads"`
}

// DownloadConfig holds resolver and direct-fetch configuration.
type DownloadConfig struct {
	UserAgent     string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	StreamTimeout time.Duration `yaml:"stream_timeout" envconfig:"DOWNLOAD_STREAM_TIMEOUT" default:"120s"`
	MirrorTimeout time.Duration `yaml:"mirror_timeout" envconfig:"DOWNLOAD_MIRROR_TIMEOUT" default:"30s"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" envconfig:"DOWNLOAD_PROBE_TIMEOUT" default:"30s"`
	YtDlpPath     string        `yaml:"ytdlp_path" envconfig:"YTDLP_PATH" default:"yt-dlp"`
}

// WorkerConfig holds download worker pool configuration.
type WorkerConfig struct {
	Count     int `yaml:"count" envconfig:"WORKER_COUNT" default:"4"`
	QueueSize int `yaml:"queue_size" envconfig:"WORKER_QUEUE_SIZE" default:"64"`
}

// TrendingConfig holds trending/search API client configuration.
type TrendingConfig struct {
	BaseURL       string        `yaml:"base_url" envconfig:"TRENDING_BASE_URL" default:"https://www.tikwm.com"`
	DefaultRegion string        `yaml:"default_region" envconfig:"TRENDING_REGION" default:"US"`
	CacheSize     int           `yaml:"cache_size" envconfig:"URL_CACHE_SIZE" default:"512"`
	CacheTTL      time.Duration `yaml:"cache_ttl" envconfig:"URL_CACHE_TTL" default:"1h"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Storage.DownloadDir == "" {
		return fmt.Errorf("DOWNLOAD_DIR is required")
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
