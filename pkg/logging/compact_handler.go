package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// CompactHandler writes one console line per record:
//
//	[LEVEL] HH:MM:SS [component] message | key=value key=value
//
// The request id of the record's context is appended when the record does
// not carry one, so component loggers get it too.
type CompactHandler struct {
	opts     slog.HandlerOptions
	mu       *sync.Mutex
	out      io.Writer
	colorize bool
	attrs    []slog.Attr
	groups   []string
}

var levelTags = map[slog.Level]struct {
	tag   string
	color *color.Color
}{
	LevelTrace:      {"[TRACE] ", color.New(color.FgHiBlack)},
	slog.LevelDebug: {"[DEBUG] ", color.New(color.FgCyan)},
	slog.LevelInfo:  {"[INFO]  ", color.New(color.FgGreen)},
	slog.LevelWarn:  {"[WARN]  ", color.New(color.FgYellow)},
	slog.LevelError: {"[ERROR] ", color.New(color.FgRed, color.Bold)},
}

func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &CompactHandler{
		opts:     *opts,
		mu:       &sync.Mutex{},
		out:      w,
		colorize: (w == os.Stderr || w == os.Stdout) && !color.NoColor,
	}
}

func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

func (h *CompactHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = h.appendLevel(buf, r.Level)
	buf = r.Time.AppendFormat(buf, "15:04:05")
	buf = append(buf, ' ')

	var component string
	for _, a := range h.attrs {
		if a.Key == "component" {
			component = a.Value.String()
		}
	}
	if component != "" {
		buf = append(buf, '[')
		buf = append(buf, component...)
		buf = append(buf, "] "...)
	}
	buf = append(buf, r.Message...)

	sep := " |"
	haveRequestID := false
	add := func(a slog.Attr) {
		if a.Equal(slog.Attr{}) || a.Key == "component" {
			return
		}
		if a.Key == "requestID" {
			haveRequestID = true
		}
		buf = append(buf, sep...)
		buf = append(buf, ' ')
		sep = ""
		buf = h.appendAttr(buf, a)
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(a)
		return true
	})
	if id := GetRequestID(ctx); id != "" && !haveRequestID {
		add(slog.String("requestID", id))
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *CompactHandler) appendLevel(buf []byte, level slog.Level) []byte {
	lt, ok := levelTags[level]
	if !ok {
		return fmt.Appendf(buf, "[%-5s] ", level.String())
	}
	if h.colorize {
		return append(buf, lt.color.Sprint(lt.tag)...)
	}
	return append(buf, lt.tag...)
}

func (h *CompactHandler) appendAttr(buf []byte, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if len(h.groups) > 0 {
		a.Key = strings.Join(h.groups, ".") + "." + a.Key
	}

	switch a.Key {
	case "requestID":
		s := a.Value.String()
		if len(s) > 8 {
			s = s[:8]
		}
		return append(append(buf, "req="...), s...)
	case "durationMs":
		return append(append(append(buf, "duration="...), a.Value.String()...), "ms"...)
	case "error":
		return strconv.AppendQuote(append(buf, "error="...), a.Value.String())
	}

	buf = append(buf, a.Key...)
	buf = append(buf, '=')

	v := a.Value
	switch v.Kind() {
	case slog.KindString:
		if s := v.String(); needsQuoting(s) {
			return strconv.AppendQuote(buf, s)
		}
		return append(buf, v.String()...)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, g := range v.Group() {
			parts = append(parts, g.Key+"="+g.Value.String())
		}
		return append(buf, "{"+strings.Join(parts, " ")+"}"...)
	default:
		return fmt.Append(buf, v.Any())
	}
}

// needsQuoting reports whether s would be ambiguous unquoted, e.g. scene
// object paths with spaces
func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\n\"=")
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}
