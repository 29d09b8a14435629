package rainmeter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogHandler implements slog.Handler by routing records to the Rainmeter log
// of one measure.
type LogHandler struct {
	ctx    Context
	opts   handlerConfig
	attrs  []groupedAttr
	groups []string
}

// groupedAttr is an attr added by WithAttrs under the groups open at the time
type groupedAttr struct {
	group string
	attr  slog.Attr
}

// HandlerOption configures the LogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level  slog.Level
	prefix string
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum slog level forwarded to Rainmeter.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithPrefix prepends prefix to every message, e.g. the plugin name.
func WithPrefix(prefix string) HandlerOption {
	return func(c *handlerConfig) {
		c.prefix = prefix
	}
}

// NewLogHandler creates a handler bound to ctx.
func NewLogHandler(ctx Context, opts ...HandlerOption) *LogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LogHandler{ctx: ctx, opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// Handle formats the record as "prefix: message key=value ..." and logs it.
func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	if h.opts.prefix != "" {
		sb.WriteString(h.opts.prefix)
		sb.WriteString(": ")
	}
	sb.WriteString(record.Message)

	for _, ga := range h.attrs {
		writeAttr(&sb, ga.group, ga.attr)
	}
	group := strings.Join(h.groups, ".")
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, group, a)
		return true
	})

	h.ctx.Log(levelFromSlog(record.Level), sb.String())
	return nil
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	group := strings.Join(h.groups, ".")
	nh := *h
	nh.attrs = make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, groupedAttr{group: group, attr: a})
	}
	return &nh
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(append([]string(nil), h.groups...), name)
	return &nh
}

func writeAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		// a group with an empty key is inlined
		if a.Key == "" {
			key = group
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, key, ga)
		}
		return
	}
	fmt.Fprintf(sb, " %s=%v", key, a.Value.Any())
}

func levelFromSlog(level slog.Level) LogLevel {
	switch {
	case level >= slog.LevelError:
		return LogError
	case level >= slog.LevelWarn:
		return LogWarning
	case level >= slog.LevelInfo:
		return LogNotice
	default:
		return LogDebug
	}
}
