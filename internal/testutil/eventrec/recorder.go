// Package eventrec records published events in tests.
package eventrec

import (
	"context"
	"sync"

	"food-delivery/internal/events"
)

// Published is a single Publish call.
type Published struct {
	Topic string
	Event events.Event
}

// Recorder implements kafka.Publisher.
type Recorder struct {
	mu   sync.Mutex
	sent []Published
}

// Publish records the event.
func (r *Recorder) Publish(_ context.Context, topic string, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Published{Topic: topic, Event: ev})
}

// All returns every recorded event.
func (r *Recorder) All() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.sent...)
}

// OfType returns the events of eventType, whatever topic they went to.
func (r *Recorder) OfType(eventType string) []events.Event {
	var out []events.Event
	for _, p := range r.All() {
		if p.Event.Header().EventType == eventType {
			out = append(out, p.Event)
		}
	}
	return out
}
