package quiz

import (
	"fmt"
	"strings"
	"time"
)

// Pacing selects what drives a session to its next question.
type Pacing string

const (
	// PacingCountdown advances after a visible countdown once the inactivity window closes.
	PacingCountdown Pacing = "countdown"
	// PacingAnswer advances shortly after an answer, or when the inactivity window closes unanswered.
	PacingAnswer Pacing = "answer"
)

// Config holds the quiz timings and question source settings.
type Config struct {
	Variant            string        `yaml:"variant" envconfig:"QUIZ_VARIANT"`
	Subtopics          []string      `yaml:"subtopics"`
	Pacing             Pacing        `yaml:"pacing" envconfig:"QUIZ_PACING"`
	Inactivity         time.Duration `yaml:"inactivity" envconfig:"QUIZ_INACTIVITY"`
	CountdownTicks     int           `yaml:"countdown_ticks" envconfig:"QUIZ_COUNTDOWN_TICKS"`
	Tick               time.Duration `yaml:"tick"`
	RetryDelay         time.Duration `yaml:"retry_delay" envconfig:"QUIZ_RETRY_DELAY"`
	SilenceThreshold   int           `yaml:"silence_threshold" envconfig:"QUIZ_SILENCE_THRESHOLD"`
	ResumeNoticeDelay  time.Duration `yaml:"resume_notice_delay"`
	AnswerAdvanceDelay time.Duration `yaml:"answer_advance_delay"`
	HistorySize        int           `yaml:"history_size"`
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		Variant:            "plain",
		Pacing:             PacingCountdown,
		Inactivity:         7 * time.Second,
		CountdownTicks:     5,
		Tick:               time.Second,
		RetryDelay:         10 * time.Second,
		SilenceThreshold:   5,
		ResumeNoticeDelay:  10 * time.Second,
		AnswerAdvanceDelay: 2 * time.Second,
		HistorySize:        DefaultHistorySize,
	}
}

// Normalize fills zero values from DefaultConfig and validates the rest.
func (c *Config) Normalize() error {
	def := DefaultConfig()

	c.Pacing = Pacing(strings.ToLower(strings.TrimSpace(string(c.Pacing))))
	switch c.Pacing {
	case "":
		c.Pacing = def.Pacing
	case PacingCountdown, PacingAnswer:
	default:
		return fmt.Errorf("invalid quiz.pacing %q; allowed: countdown, answer", c.Pacing)
	}
	if strings.TrimSpace(c.Variant) == "" {
		c.Variant = def.Variant
	}
	if c.Inactivity <= 0 {
		c.Inactivity = def.Inactivity
	}
	if c.CountdownTicks <= 0 {
		c.CountdownTicks = def.CountdownTicks
	}
	if c.Tick <= 0 {
		c.Tick = def.Tick
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = def.SilenceThreshold
	}
	if c.ResumeNoticeDelay < 0 {
		return fmt.Errorf("quiz.resume_notice_delay must be >= 0")
	}
	if c.ResumeNoticeDelay == 0 {
		c.ResumeNoticeDelay = def.ResumeNoticeDelay
	}
	if c.AnswerAdvanceDelay <= 0 {
		c.AnswerAdvanceDelay = def.AnswerAdvanceDelay
	}
	if c.HistorySize <= 0 {
		c.HistorySize = def.HistorySize
	}
	return nil
}
