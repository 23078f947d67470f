// Package config holds the bot settings shared by every Telegram app built
// on core: credentials, update source, logging and rate limiting.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Update sources.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by rate_limit.exclude_updates. Poll answers are
// excluded whether listed or not.
const (
	UpdateMessage    = "message"
	UpdateCommand    = "command"
	UpdatePollAnswer = "poll_answer"
)

var updateKinds = []string{UpdateMessage, UpdateCommand, UpdatePollAnswer}

type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds of zero means the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig is read by logger.InitLogger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// Profile "debug" or "dev" switches the default format to key=value.
	Profile   string `yaml:"profile" envconfig:"LOG_PROFILE"`
	KeysOrder string `yaml:"keys_order"`
	// DebugSample keeps one in N high volume debug events, "1/N" or "N".
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
}

type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config is the core section of an app config. Apps embed it inline.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// LoadFile decodes the YAML at path into dst and overlays environment
// variables named by envconfig tags.
func LoadFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("config env: %w", err)
	}
	return nil
}

// Load is LoadFile plus Normalize for a bare core config.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core sections and fills defaults in place.
func (c *Config) Normalize() error {
	if c == nil {
		return errors.New("nil config")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram token is required (telegram.token or BOT_TOKEN)")
	}
	if err := c.normalizeRunMode(); err != nil {
		return err
	}
	return c.RateLimit.normalize()
}

func (c *Config) normalizeRunMode() error {
	mode := strings.ToLower(strings.TrimSpace(c.Telegram.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if c.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		c.Telegram.RunMode = RunModeLongpoll
		return nil
	case RunModeWebhook:
		var missing []string
		if strings.TrimSpace(c.Webhook.URL) == "" {
			missing = append(missing, "webhook.url")
		}
		if strings.TrimSpace(c.Webhook.Listen) == "" {
			missing = append(missing, "webhook.listen")
		}
		if c.Webhook.Port <= 0 {
			missing = append(missing, "webhook.port")
		}
		if len(missing) > 0 {
			return fmt.Errorf("webhook mode needs %s", strings.Join(missing, ", "))
		}
		c.Telegram.RunMode = RunModeWebhook
		return nil
	}
	return fmt.Errorf("invalid telegram.run_mode %q; allowed: %s, %s", c.Telegram.RunMode, RunModeLongpoll, RunModeWebhook)
}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	kinds := r.ExcludeUpdates[:0]
	for _, v := range r.ExcludeUpdates {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" {
			continue
		}
		if !slices.Contains(updateKinds, k) {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: %s", v, strings.Join(updateKinds, ", "))
		}
		kinds = append(kinds, k)
	}
	r.ExcludeUpdates = kinds
	return nil
}
