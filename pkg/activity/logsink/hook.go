// Package logsink writes settings activity to a structured logger.
package logsink

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mldkyt/go-settings/pkg/activity"
)

// Hook logs every event. Rejections and failures log at warn level so they
// stand out from routine reads and updates.
type Hook struct {
	Logger *slog.Logger
}

// New returns a hook writing to logger, or to slog.Default when nil.
func New(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return Hook{Logger: logger}
}

// Notify implements activity.ActivityHook.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("verb", event.Verb),
		slog.String("object_type", event.ObjectType),
		slog.String("object_id", event.ObjectID),
	}
	if event.DomainID != "" {
		attrs = append(attrs, slog.String("domain", event.DomainID))
	}
	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor", event.ActorID))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if detail, ok := event.Metadata["detail"].(string); ok && detail != "" {
		attrs = append(attrs, slog.String("detail", detail))
	}
	logger.LogAttrs(ctx, levelFor(event.Verb), "settings activity", attrs...)
	return nil
}

func levelFor(verb string) slog.Level {
	switch {
	case verb == activity.VerbRejected, verb == activity.VerbUnauthorized:
		return slog.LevelWarn
	case strings.HasSuffix(verb, "_failed"):
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
