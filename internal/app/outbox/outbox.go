package outbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"luxrent/internal/domain/shared/events"
)

// Header names stamped on every record.
const (
	HeaderCorrelationID = "correlation-id"
	HeaderAggregateType = "aggregate-type"
)

// EventRecord is a domain event serialized for the outbox table.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder writes the event struct as the payload. IDGenerator
// defaults to random UUIDs.
type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("outbox: encode %s: %w", ev.EventName(), err)
	}
	newID := uuid.NewString
	if e.IDGenerator != nil {
		newID = e.IDGenerator
	}
	name := ev.EventName()
	kind, _, _ := strings.Cut(name, ".")
	return EventRecord{
		ID:         newID(),
		Name:       name,
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{HeaderAggregateType: kind},
	}, nil
}

type correlationKey struct{}

// WithCorrelationID tags ctx so that events recorded under it can be traced
// back to the request or message that caused them.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// RecordDomainEvents appends evs to box in the order they were raised. A nil
// box drops them.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	correlation := CorrelationID(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if correlation != "" {
			if rec.Headers == nil {
				rec.Headers = map[string]string{}
			}
			rec.Headers[HeaderCorrelationID] = correlation
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
