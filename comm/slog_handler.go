package comm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/itchio/wharf/state"
)

// slogHandler routes slog records to a state.Consumer, the same path
// plan.Build and the installer log through. Attributes are appended to
// the message as "key=value" pairs, or sent as fields in JSON mode.
type slogHandler struct {
	consumer *state.Consumer
	level    slog.Leveler
	attrs    []slog.Attr
	groups   []string
}

var _ slog.Handler = (*slogHandler)(nil)

// NewSlogHandler returns a slog.Handler that logs to consumer, or
// to the console when consumer is nil.
func NewSlogHandler(consumer *state.Consumer, level slog.Leveler) slog.Handler {
	if level == nil {
		level = slog.LevelInfo
	}

	return &slogHandler{
		consumer: consumer,
		level:    level,
	}
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

type field struct {
	key   string
	value any
}

func (h *slogHandler) Handle(_ context.Context, r slog.Record) error {
	var fields []field
	for _, attr := range h.attrs {
		fields = appendAttr(fields, h.groups, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		fields = appendAttr(fields, h.groups, attr)
		return true
	})

	level := slogLevelToCommLevel(r.Level)

	if h.consumer == nil {
		if JsonEnabled() {
			// debug records made it past Enabled, don't filter them again
			obj := JsonMessage{
				"type":    "log",
				"time":    time.Now().UTC().Unix(),
				"level":   level,
				"message": r.Message,
			}
			for _, f := range fields {
				obj[f.key] = f.value
			}
			sendJSON(obj)
			return nil
		}
		Logl(level, formatRecord(r.Message, fields))
		return nil
	}

	if h.consumer.OnMessage != nil {
		h.consumer.OnMessage(level, formatRecord(r.Message, fields))
	}
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := h.clone()
	nh.attrs = append(nh.attrs, attrs...)
	return nh
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	nh := h.clone()
	nh.groups = append(nh.groups, name)
	return nh
}

func (h *slogHandler) clone() *slogHandler {
	return &slogHandler{
		consumer: h.consumer,
		level:    h.level,
		groups:   append([]string{}, h.groups...),
		attrs:    append([]slog.Attr{}, h.attrs...),
	}
}

func appendAttr(fields []field, groups []string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return fields
	}

	if attr.Value.Kind() == slog.KindGroup {
		nextGroups := append([]string{}, groups...)
		if attr.Key != "" {
			nextGroups = append(nextGroups, attr.Key)
		}
		for _, groupAttr := range attr.Value.Group() {
			fields = appendAttr(fields, nextGroups, groupAttr)
		}
		return fields
	}

	if attr.Key == "" {
		return fields
	}

	keyParts := append(append([]string{}, groups...), attr.Key)
	return append(fields, field{
		key:   strings.Join(keyParts, "."),
		value: slogValueToAny(attr.Value),
	})
}

// formatRecord renders "message (key=value, key=value)"
func formatRecord(msg string, fields []field) string {
	if len(fields) == 0 {
		return msg
	}

	var pairs []string
	for _, f := range fields {
		pairs = append(pairs, fmt.Sprintf("%s=%v", f.key, f.value))
	}
	return fmt.Sprintf("%s (%s)", msg, strings.Join(pairs, ", "))
}

func slogValueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindDuration:
		return v.Duration()
	case slog.KindTime:
		return v.Time()
	}

	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}

func slogLevelToCommLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
