package metrics

import (
	"context"

	"github.com/swapcrate/swapcrate/internal/event"
)

// EventMetricsCollector subscribes to lifecycle events and records per-type
// publish counts
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to every lifecycle event type
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range event.AllTradeEventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent counts a published event
func (e *EventMetricsCollector) HandleEvent(_ context.Context, evt event.Event) error {
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()
	return nil
}
