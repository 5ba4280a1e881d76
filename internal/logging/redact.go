package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/=-]{8,}`)

// Redactor removes admin tokens from log output.
type Redactor struct {
	secrets []string
}

// NewRedactor redacts bearer credentials plus every non-empty secret.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, secret := range secrets {
		if secret = strings.TrimSpace(secret); secret != "" {
			r.secrets = append(r.secrets, secret)
		}
	}
	return r
}

// Redact returns input with sensitive values replaced.
func (r *Redactor) Redact(input string) string {
	out := bearerPattern.ReplaceAllString(input, "Bearer "+redacted)
	for _, secret := range r.secrets {
		out = strings.ReplaceAll(out, secret, redacted)
	}
	return out
}

// RedactingHandler wraps another handler and redacts messages and string attributes.
type RedactingHandler struct {
	handler  slog.Handler
	redactor *Redactor
}

// NewRedactingHandler wraps handler.
func NewRedactingHandler(handler slog.Handler, redactor *Redactor) *RedactingHandler {
	if redactor == nil {
		redactor = NewRedactor()
	}
	return &RedactingHandler{handler: handler, redactor: redactor}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	record := slog.NewRecord(r.Time, r.Level, h.redactor.Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		record.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, record)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redactedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redactedAttrs[i] = h.redactAttr(attr)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redactedAttrs), redactor: h.redactor}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name), redactor: h.redactor}
}

func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.Redact(a.Value.String()))
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = h.redactAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	default:
		return a
	}
}
