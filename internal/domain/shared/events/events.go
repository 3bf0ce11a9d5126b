package events

import "time"

// DomainEvent is a fact raised by an aggregate. The outbox relays it to the
// broker after the aggregate is saved.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates. Events stay pending until the
// application layer drains them into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

// Record queues evs in order, skipping nils.
func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.pending = append(r.pending, ev)
		}
	}
}

// PendingEvents returns a copy of the queue.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	return append([]DomainEvent(nil), r.pending...)
}

func (r *EventRecorder) ClearEvents() { r.pending = nil }

// Drain hands over the queue and empties the recorder.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
