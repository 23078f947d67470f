package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
)

// LoggingProvider records every upstream call on the llm log component.
type LoggingProvider struct {
	inner Provider
	name  string
}

// WithLogging wraps a Provider with structured logging.
func WithLogging(p Provider, name string) Provider {
	return &LoggingProvider{inner: p, name: name}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	attrs := []slog.Attr{
		slog.String("provider", l.name),
		slog.String("model", l.inner.ModelID()),
		slog.Int("prompt_len", len([]rune(req.Prompt))),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		logger.Warn(ctx, "llm", "llm.generate", attrs...)
		return nil, err
	}
	attrs = append(attrs,
		slog.String("status", "ok"),
		slog.Int("input_tokens", resp.Usage.InputTokens),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
	)
	logger.Debug(ctx, "llm", "llm.generate", attrs...)
	return resp, nil
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }
