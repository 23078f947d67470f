package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summarize runs fn under the handler name and logs the result: Info on
// success, Warn with err and err_code otherwise.
func summarize(c tele.Context, name string, fn func() error, extra ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	err := fn()

	replies, kb := middleware.GetCounters(c)
	attrs := make([]slog.Attr, 0, len(extra)+6)
	attrs = append(attrs,
		slog.Int("messages", replies),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	)
	attrs = append(attrs, extra...)
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
		logger.Warn(ctx, "tg", "handler.handled", attrs...)
		return err
	}
	logger.Info(ctx, "tg", "handler.handled", append(attrs, slog.String("status", "ok"))...)
	return nil
}

func skipped(c tele.Context, name, reason string, extra ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	logger.Debug(ctx, "tg", "handler.skipped",
		append([]slog.Attr{slog.String("status", "skip"), slog.String("outcome", reason)}, extra...)...)
}

func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode prefers a Code() method anywhere in the chain, then the type name.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
