// Package logger is the structured slog setup shared by the Telegram runtime,
// storage and the quiz engine. Every line carries a component and an event.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/quizbot/core/buildinfo"
	coreconfig "github.com/m3rciful/quizbot/core/config"
)

const defaultDebugEvery = 50

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	closed   bool

	out   *asyncWriter
	files []io.Closer
	level slog.LevelVar

	debugEvery atomic.Int64
	debugSeen  atomic.Int64
	trace      atomic.Bool

	// L is the base logger, nil until InitLogger. The package level helpers
	// (Info, Warn, ...) are safe to call before that and drop the event.
	L *slog.Logger
)

// settings is the resolved logging section of the config.
type settings struct {
	format     logFormat
	order      []string
	level      slog.Level
	debugEvery int
	profile    string
	file       string
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{
		format:     formatJSON,
		order:      defaultKeyOrder,
		level:      slog.LevelInfo,
		debugEvery: defaultDebugEvery,
		profile:    "prod",
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}
	if order := splitList(lc.KeysOrder); len(order) > 0 && lc.KeysOrder != "default" {
		s.order = order
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}
	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		s.debugEvery = parseEvery(spec)
	}
	if dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && name != "" {
		s.file = filepath.Join(dir, name)
	}
	return s
}

// parseEvery reads "1/N" or "N" as "log one in N"; zero or garbage disables sampling.
func parseEvery(spec string) int {
	if _, den, ok := strings.Cut(spec, "/"); ok {
		spec = den
	}
	n, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitLogger installs the global logger. Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		s := settingsFrom(cfg)
		level.Set(s.level)
		debugEvery.Store(int64(s.debugEvery))
		trace.Store(truthy(os.Getenv("LOG_TRACE")) || truthy(os.Getenv("TRACE")))

		sinks := []io.Writer{os.Stdout}
		if s.file != "" {
			f, ferr := openLogFile(s.file)
			if ferr != nil {
				err = fmt.Errorf("logger: open %s: %w", s.file, ferr)
				return
			}
			sinks = append(sinks, f)
			files = append(files, f)
		}
		out = newAsyncWriter(sinks...)

		L = slog.New(newHandler(handlerOptions{
			level:  &level,
			out:    out,
			format: s.format,
			order:  s.order,
		}))
		slog.SetDefault(L)

		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", s.profile),
		)
	})
	return err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// Shutdown drains buffered lines and closes the log file.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	if out != nil {
		errs = append(errs, out.Close())
	}
	for _, f := range files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// Background returns context.Background().
func Background() context.Context {
	return context.Background()
}

func emit(ctx context.Context, component string, lvl slog.Level, event string, attrs []slog.Attr) {
	l := L
	if l == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, lvl) {
		return
	}
	head := make([]slog.Attr, 0, len(attrs)+2)
	if component = strings.TrimSpace(component); component != "" {
		head = append(head, slog.String("component", component))
	}
	head = append(head, slog.String("event", event))
	l.LogAttrs(ctx, lvl, event, append(head, attrs...)...)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelDebug, event, attrs)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelInfo, event, attrs)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelWarn, event, attrs)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelError, event, attrs)
}

// ShouldSampleDebug reports whether a high volume debug event should be
// written. LOG_TRACE=1 lets every event through.
func ShouldSampleDebug() bool {
	if trace.Load() {
		return true
	}
	every := debugEvery.Load()
	if every <= 1 {
		return true
	}
	return (debugSeen.Add(1)-1)%every == 0
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
