// ABOUTME: Configuration loading and parsing for hassle-chat
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete hassle-chat configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Upstream    UpstreamConfig    `yaml:"upstream"`
	Database    DatabaseConfig    `yaml:"database"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds server address configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// UpstreamConfig holds the chat backend configuration. An empty ChatURL
// switches the dispatcher to the offline local responder.
type UpstreamConfig struct {
	ChatURL string        `yaml:"chat_url"`
	Timeout time.Duration `yaml:"-"`
	// ThinkingDelay applies only to the local responder.
	ThinkingDelay time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TimeoutRaw       string `yaml:"timeout"`
	ThinkingDelayRaw string `yaml:"thinking_delay"`
}

// DatabaseConfig holds durable store configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	// Ephemeral keeps all state in memory; nothing survives a restart.
	Ephemeral bool `yaml:"ephemeral"`
}

// AttachmentsConfig bounds the in-memory attachment cache.
type AttachmentsConfig struct {
	TTL      time.Duration `yaml:"-"`
	MaxCount int           `yaml:"max_count"`

	TTLRaw string `yaml:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the file leaves fields unset.
const (
	defaultHTTPAddr       = "127.0.0.1:8080"
	defaultTimeout        = 30 * time.Second
	defaultThinkingDelay  = 2 * time.Second
	defaultAttachmentTTL  = time.Hour
	defaultAttachmentsMax = 256
)

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. If the environment variable is not set, it is
// replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = defaultHTTPAddr
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = defaultTimeout
	}
	if c.Upstream.ThinkingDelay == 0 && c.Upstream.ThinkingDelayRaw == "" {
		c.Upstream.ThinkingDelay = defaultThinkingDelay
	}
	if c.Attachments.TTL == 0 {
		c.Attachments.TTL = defaultAttachmentTTL
	}
	if c.Attachments.MaxCount == 0 {
		c.Attachments.MaxCount = defaultAttachmentsMax
	}
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	if c.Database.Path == "" && !c.Database.Ephemeral {
		return fmt.Errorf("database.path is required (or set database.ephemeral)")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Upstream.TimeoutRaw != "" {
		cfg.Upstream.Timeout, err = time.ParseDuration(cfg.Upstream.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing upstream.timeout %q: %w", cfg.Upstream.TimeoutRaw, err)
		}
	}

	if cfg.Upstream.ThinkingDelayRaw != "" {
		cfg.Upstream.ThinkingDelay, err = time.ParseDuration(cfg.Upstream.ThinkingDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing upstream.thinking_delay %q: %w", cfg.Upstream.ThinkingDelayRaw, err)
		}
	}

	if cfg.Attachments.TTLRaw != "" {
		cfg.Attachments.TTL, err = time.ParseDuration(cfg.Attachments.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing attachments.ttl %q: %w", cfg.Attachments.TTLRaw, err)
		}
	}

	return nil
}
