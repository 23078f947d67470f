package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format logFormat) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	h := newHandler(handlerOptions{level: slog.LevelDebug, out: buf, format: format})
	return slog.New(h), buf
}

func logEvent(ctx context.Context, l *slog.Logger, lvl slog.Level, component, event string, attrs ...slog.Attr) {
	head := []slog.Attr{slog.String("component", component), slog.String("event", event)}
	l.LogAttrs(ctx, lvl, event, append(head, attrs...)...)
}

func assertOrder(t *testing.T, line string, parts ...string) {
	t.Helper()
	pos := -1
	for _, p := range parts {
		idx := strings.Index(line, p)
		if idx == -1 || idx < pos {
			t.Fatalf("%s not found in order within %s", p, line)
		}
		pos = idx
	}
}

func TestHandlerKVOrder(t *testing.T) {
	l, buf := newTestLogger(formatKV)
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)

	logEvent(ctx, l, slog.LevelInfo, "app", "test.event",
		slog.String("cause", "unit"),
		slog.String("status", "OK"),
	)

	line := strings.TrimSpace(buf.String())
	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(want) {
		t.Fatalf("unexpected token count %d: %s", len(tokens), line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestHandlerJSONOrder(t *testing.T) {
	l, buf := newTestLogger(formatJSON)
	ctx := WithRID(Background(), "rid-json")

	logEvent(ctx, l, slog.LevelError, "service.users", "user.create",
		slog.String("err", "boom"),
		slog.String("status", "fail"),
	)

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, `{"ts":`) || !strings.HasSuffix(line, "}") {
		t.Fatalf("expected a JSON object, got %s", line)
	}
	assertOrder(t, line, `"level":"ERROR"`, `"component":"service.users"`, `"event":"user.create"`, `"status":"fail"`, `"rid":"rid-json"`, `"ts_unix_nano"`, `"err":"boom"`)
}

func TestHandlerCompactsRID(t *testing.T) {
	raw := BuildRID(123, 456, 789)

	l, buf := newTestLogger(formatKV)
	logEvent(WithRID(Background(), raw), l, slog.LevelInfo, "tg", "rid.test")
	line := buf.String()
	if !strings.Contains(line, "rid="+CompactRID(raw)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full belongs to JSON output only, got %s", line)
	}

	l, buf = newTestLogger(formatJSON)
	logEvent(WithRID(Background(), raw), l, slog.LevelInfo, "tg", "rid.test")
	line = buf.String()
	if !strings.Contains(line, `"rid":"3f.co.lx"`) || !strings.Contains(line, `"rid_full":"123:456:789"`) {
		t.Fatalf("expected compact and full rid, got %s", line)
	}
}

func TestHandlerQuizKeyOrder(t *testing.T) {
	l, buf := newTestLogger(formatKV)
	logEvent(Background(), l, slog.LevelInfo, "quiz", "poll.sent",
		slog.Int("streak", 2),
		slog.String("poll_id", "p-1"),
		slog.String("session_id", "s-1"),
	)
	assertOrder(t, buf.String(), "component=quiz", "event=poll.sent", "session_id=s-1", "poll_id=p-1", "streak=2")
}

func TestHandlerNormalizesValues(t *testing.T) {
	l, buf := newTestLogger(formatKV)
	l.With("component", "db").WithGroup("pool").LogAttrs(Background(), slog.LevelDebug, "",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Any("err", errors.New("no rows")),
		slog.String("empty", ""),
		slog.String("note", `a "quoted" value`),
		slog.Int("size", 3),
	)
	line := buf.String()
	for _, want := range []string{
		"component=db",
		"event=unknown",
		"pool.duration_ms=2",
		`pool.err="no rows"`,
		`pool.note="a \"quoted\" value"`,
		"pool.size=3",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
	if strings.Contains(line, "empty=") {
		t.Fatalf("empty values must be dropped: %s", line)
	}
}

func TestHandlerLastAttrWins(t *testing.T) {
	l, buf := newTestLogger(formatKV)
	logEvent(Background(), l.With("component", "app"), slog.LevelInfo, "llm", "llm.generate")
	if !strings.Contains(buf.String(), "component=llm") || strings.Contains(buf.String(), "component=app") {
		t.Fatalf("expected the record component to win: %s", buf.String())
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(newHandler(handlerOptions{level: slog.LevelWarn, out: buf, format: formatKV}))
	logEvent(Background(), l, slog.LevelInfo, "app", "quiet")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level: %s", buf.String())
	}
}

func TestAsyncWriterFlushAndClose(t *testing.T) {
	var a, b bytes.Buffer
	w := newAsyncWriter(&a, &b)
	for i := 0; i < 10; i++ {
		if _, err := w.Write([]byte("line\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := strings.Count(a.String(), "line\n"); got != 10 {
		t.Fatalf("sink a got %d lines", got)
	}
	if a.String() != b.String() {
		t.Fatalf("sinks differ")
	}
	if _, err := w.Write([]byte("late\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("write after close: %v", err)
	}
}

func TestParseEvery(t *testing.T) {
	cases := map[string]int{"1/20": 20, "10": 10, "0": 0, "x": 0, "-3": 0}
	for spec, want := range cases {
		if got := parseEvery(spec); got != want {
			t.Fatalf("parseEvery(%q) = %d, want %d", spec, got, want)
		}
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	if L != nil {
		t.Skip("global logger already initialised")
	}
	Info(Background(), "app", "noop", slog.String("k", "v"))
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\tdé", 5); got != "abc\td" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got, cut := SummarizeStrings([]string{"a", "b", "c"}, 2); got != "a, b" || !cut {
		t.Fatalf("SummarizeStrings = %q %v", got, cut)
	}
}
