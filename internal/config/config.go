package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	Poll    PollConfig    `yaml:"poll"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig identifies the FOSSology console and the account used to
// log in to it.
type ServerConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HTTPConfig holds transport tuning knobs.
type HTTPConfig struct {
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RetryPauseSeconds int     `yaml:"retry_pause_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// PollConfig holds agent-polling settings.
type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxWaitMinutes  int `yaml:"max_wait_minutes"` // 0 = wait until canceled
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			TimeoutSeconds:    30,
			RetryPauseSeconds: 1,
			RequestsPerSecond: 5,
		},
		Poll: PollConfig{
			IntervalSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("FD_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("FD_USERNAME"); v != "" {
		c.Server.Username = v
	}
	if v := os.Getenv("FD_PASSWORD"); v != "" {
		c.Server.Password = v
	}
	if v := os.Getenv("FD_HTTP_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HTTP.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("FD_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Poll.IntervalSeconds = n
		}
	}
	if v := os.Getenv("FD_MAX_WAIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Poll.MaxWaitMinutes = n
		}
	}
	if v := os.Getenv("FD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("FD_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func (c *Config) validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url must be http or https, got %q", c.Server.URL)
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http timeout must be positive: %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.RetryPauseSeconds < 0 {
		return fmt.Errorf("retry pause must not be negative: %d", c.HTTP.RetryPauseSeconds)
	}
	if c.HTTP.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive: %v", c.HTTP.RequestsPerSecond)
	}
	if c.Poll.IntervalSeconds <= 0 {
		return fmt.Errorf("poll interval must be positive: %d", c.Poll.IntervalSeconds)
	}
	if c.Poll.MaxWaitMinutes < 0 {
		return fmt.Errorf("max wait must not be negative: %d", c.Poll.MaxWaitMinutes)
	}
	return nil
}

// Timeout returns the per-request timeout as a duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// RetryPause returns the pause between connection retries as a duration.
func (h HTTPConfig) RetryPause() time.Duration {
	return time.Duration(h.RetryPauseSeconds) * time.Second
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSeconds) * time.Second
}

// MaxWait returns the maximum agent wait as a duration, or zero when the
// wait is bounded only by the caller's context.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.Poll.MaxWaitMinutes) * time.Minute
}
