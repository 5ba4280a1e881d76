// Package promsink counts settings activity in Prometheus.
package promsink

import (
	"context"

	"github.com/mldkyt/go-settings/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

// Hook increments a counter per event, labelled by verb, object type and
// rejection reason.
type Hook struct {
	events *prometheus.CounterVec
}

// New registers the events counter on reg. A nil registerer leaves the
// counter unregistered, which is useful in tests.
func New(reg prometheus.Registerer, namespace string) (*Hook, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "settings",
		Name:      "events_total",
		Help:      "Settings engine outcomes by verb, object type and reason.",
	}, []string{"verb", "object_type", "reason"})
	if reg != nil {
		if err := reg.Register(events); err != nil {
			return nil, err
		}
	}
	return &Hook{events: events}, nil
}

// Notify implements activity.ActivityHook.
func (h *Hook) Notify(_ context.Context, event activity.Event) error {
	if h == nil || h.events == nil {
		return nil
	}
	h.events.WithLabelValues(event.Verb, event.ObjectType, event.Reason).Inc()
	return nil
}

// Counter exposes the underlying vector for scraping in tests.
func (h *Hook) Counter() *prometheus.CounterVec {
	if h == nil {
		return nil
	}
	return h.events
}
