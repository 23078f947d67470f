package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

type handlerOptions struct {
	level  slog.Leveler
	out    io.Writer
	format logFormat
	order  []string
}

// handler renders records as one line of ordered key/value pairs, either
// logfmt style or JSON. Keys listed in order come first; the rest follow
// alphabetically.
type handler struct {
	opts   handlerOptions
	rank   map[string]int
	pre    []field
	prefix string
}

type field struct {
	key string
	val any
}

func newHandler(opts handlerOptions) *handler {
	if opts.level == nil {
		opts.level = slog.LevelInfo
	}
	if opts.order == nil {
		opts.order = defaultKeyOrder
	}
	rank := make(map[string]int, len(opts.order))
	for i, k := range opts.order {
		if _, dup := rank[k]; !dup {
			rank[k] = i
		}
	}
	return &handler{opts: opts, rank: rank}
}

func (h *handler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.opts.level.Level()
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.pre = slices.Clone(h.pre)
	for _, a := range attrs {
		clone.pre = appendAttr(clone.pre, h.prefix, a)
	}
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.opts.out == nil {
		return fmt.Errorf("logger: no output")
	}
	ts := r.Time.UTC()
	fields := make([]field, 0, 16+len(h.pre))
	fields = append(fields,
		field{"ts", ts.Truncate(time.Millisecond).Format(tsLayout)},
		field{"level", r.Level.String()},
	)
	if h.opts.format == formatJSON {
		fields = append(fields, field{"ts_unix_nano", ts.UnixNano()})
	}
	fields = append(fields, h.pre...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, a)
		return true
	})

	fields = h.finish(ctx, fields, r.Message)

	var line []byte
	var err error
	if h.opts.format == formatJSON {
		line, err = encodeJSON(fields)
	} else {
		line = encodeKV(fields)
	}
	if err != nil {
		return err
	}
	_, err = h.opts.out.Write(append(line, '\n'))
	return err
}

// finish dedupes keys (last write wins), fills component, event and the
// context metadata, drops empty values and sorts by rank.
func (h *handler) finish(ctx context.Context, fields []field, msg string) []field {
	idx := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if i, ok := idx[f.key]; ok {
			out[i] = f
			continue
		}
		idx[f.key] = len(out)
		out = append(out, f)
	}
	set := func(key string, val any, overwrite bool) {
		if i, ok := idx[key]; ok {
			if overwrite {
				out[i].val = val
			}
			return
		}
		idx[key] = len(out)
		out = append(out, field{key, val})
	}

	str := func(key string) string {
		if i, ok := idx[key]; ok {
			s, _ := out[i].val.(string)
			return s
		}
		return ""
	}
	if str("event") == "" {
		if msg == "" {
			msg = "unknown"
		}
		set("event", msg, true)
	}
	if str("component") == "" {
		set("component", "app", true)
	}
	if i, ok := idx["status"]; ok {
		if s, isStr := out[i].val.(string); isStr {
			out[i].val = strings.ToLower(s)
		}
	}

	m := MetaFrom(ctx)
	if m.RID != "" {
		set("rid", m.RID, false)
	}
	if m.UpdateID != 0 {
		set("update_id", m.UpdateID, false)
	}
	if m.UserID != 0 {
		set("user_id", m.UserID, false)
	}
	if m.ChatID != 0 {
		set("chat_id", m.ChatID, false)
	}
	if m.Handler != "" {
		set("handler", m.Handler, false)
	}
	if i, ok := idx["rid"]; ok {
		if rid, _ := out[i].val.(string); rid != "" {
			if short := CompactRID(rid); short != rid {
				out[i].val = short
				if h.opts.format == formatJSON {
					set("rid_full", rid, false)
				}
			}
		}
	}

	out = slices.DeleteFunc(out, func(f field) bool {
		switch v := f.val.(type) {
		case nil:
			return true
		case string:
			return v == ""
		}
		return false
	})
	slices.SortStableFunc(out, func(a, b field) int {
		ra, oka := h.rank[a.key]
		rb, okb := h.rank[b.key]
		switch {
		case oka && okb:
			return ra - rb
		case oka:
			return -1
		case okb:
			return 1
		}
		return strings.Compare(a.key, b.key)
	})
	return out
}

func appendAttr(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	key := prefix + a.Key
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix = key + "."
		}
		for _, child := range a.Value.Group() {
			fields = appendAttr(fields, prefix, child)
		}
		return fields
	}
	if a.Key == "" {
		return fields
	}
	return append(fields, normalize(key, a.Value))
}

func normalize(key string, v slog.Value) field {
	switch v.Kind() {
	case slog.KindString:
		return field{key, strings.TrimSpace(v.String())}
	case slog.KindInt64:
		return field{key, v.Int64()}
	case slog.KindUint64:
		return field{key, v.Uint64()}
	case slog.KindFloat64:
		return field{key, v.Float64()}
	case slog.KindBool:
		return field{key, v.Bool()}
	case slog.KindDuration:
		return msField(key, v.Duration())
	case slog.KindTime:
		return field{key, v.Time().UTC().Format(time.RFC3339Nano)}
	}
	switch x := v.Any().(type) {
	case nil:
		return field{key, nil}
	case error:
		return field{key, x.Error()}
	case time.Duration:
		return msField(key, x)
	case fmt.Stringer:
		return field{key, x.String()}
	default:
		return field{key, fmt.Sprint(x)}
	}
}

// msField renames duration keys to their _ms form: duration -> duration_ms,
// startup_duration -> startup_duration_ms, backoff -> backoff_ms.
func msField(key string, d time.Duration) field {
	if !strings.HasSuffix(key, "_ms") {
		key += "_ms"
	}
	return field{key, RoundMS(d).Milliseconds()}
}

func encodeJSON(fields []field) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		val, err := json.Marshal(f.val)
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", f.key, err)
		}
		b.WriteString(strconv.Quote(f.key))
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func encodeKV(fields []field) []byte {
	var b bytes.Buffer
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.key)
		b.WriteByte('=')
		s, ok := f.val.(string)
		if !ok {
			s = fmt.Sprint(f.val)
		}
		if strings.IndexFunc(s, needsQuote) >= 0 {
			s = strconv.Quote(s)
		}
		b.WriteString(s)
	}
	return b.Bytes()
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
