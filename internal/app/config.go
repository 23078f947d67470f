package app

import (
	"fmt"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/internal/llm"
	"github.com/m3rciful/quizbot/internal/ops"
	"github.com/m3rciful/quizbot/internal/question"
	"github.com/m3rciful/quizbot/internal/quiz"
)

// SenderConfig tunes the outbound Telegram dispatcher.
type SenderConfig struct {
	QueueSize  int `yaml:"queue_size"`
	Workers    int `yaml:"workers"`
	MaxRetries int `yaml:"max_retries"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	LLM      llm.Config          `yaml:"llm"`
	Quiz     quiz.Config         `yaml:"quiz"`
	Ops      ops.Config          `yaml:"ops"`
	Sender   SenderConfig        `yaml:"sender"`
}

// CoreConfig exposes the shared bot settings.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := c.Config.Normalize(); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.LLM.Normalize(); err != nil {
		return err
	}
	if _, err := question.ParseVariant(c.Quiz.Variant); err != nil {
		return fmt.Errorf("quiz: %w", err)
	}
	if err := c.Quiz.Normalize(); err != nil {
		return err
	}
	return nil
}

func (s SenderConfig) options() sender.Options {
	return sender.Options{
		QueueSize:  s.QueueSize,
		Workers:    s.Workers,
		MaxRetries: s.MaxRetries,
	}
}
