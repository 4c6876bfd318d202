package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// prettyHandler renders one coloured line per record for interactive runs:
//
//	15:04:05.000 INF http request method=GET path=/api/v1/stats
//
// Selected by the pretty log format; production deployments use the JSON
// handler. Attributes bound with WithAttrs are formatted once at bind time;
// WithGroup turns into a dotted key prefix. Attributes keyed "error" are
// highlighted red.
type prettyHandler struct {
	out    io.Writer
	level  slog.Leveler
	bound  string
	prefix string
	mu     *sync.Mutex
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &prettyHandler{
		out:   w,
		level: level,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether records at the given level are handled.
func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as one coloured line.
func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(256)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ansiDim)
	buf.WriteString(ts.Format("15:04:05.000"))
	buf.WriteString(ansiReset)
	buf.WriteByte(' ')

	buf.WriteString(levelBadge(r.Level))
	buf.WriteByte(' ')

	buf.WriteString(ansiBold)
	buf.WriteString(r.Message)
	buf.WriteString(ansiReset)

	buf.WriteString(h.bound)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

// WithAttrs returns a handler carrying attrs on every subsequent record.
func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer
	buf.WriteString(h.bound)
	for _, a := range attrs {
		writeAttr(&buf, h.prefix, a)
	}
	clone := *h
	clone.bound = buf.String()
	return &clone
}

// WithGroup returns a handler that prefixes subsequent attribute keys with
// name.
func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func levelBadge(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan + "DBG" + ansiReset
	case level < slog.LevelWarn:
		return ansiGreen + "INF" + ansiReset
	case level < slog.LevelError:
		return ansiYellow + "WRN" + ansiReset
	default:
		return ansiRed + "ERR" + ansiReset
	}
}

// writeAttr appends " key=value" with the key dimmed, flattening group
// values into dotted keys.
func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		nested := prefix
		if a.Key != "" {
			nested = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(buf, nested, ga)
		}
		return
	}

	keyColor := ansiDim
	if a.Key == "error" {
		keyColor = ansiRed
	}
	buf.WriteByte(' ')
	buf.WriteString(keyColor)
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(ansiReset)
	buf.WriteString(attrValue(a.Value))
}

func attrValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && strings.ContainsAny(s, " \t\n\"\\") {
		return strconv.Quote(s)
	}
	return s
}
