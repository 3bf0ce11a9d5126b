package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "luxrent/internal/app/outbox"
	"luxrent/internal/app/uow"
	infraoutbox "luxrent/internal/infra/outbox"
)

// Outbox keeps event records in memory for the outbox worker. Records added
// inside a memory unit of work become visible only when the unit commits.
type Outbox struct {
	mu      sync.Mutex
	records []*outboxEntry
}

type outboxEntry struct {
	record      appoutbox.EventRecord
	attempts    int
	nextAttempt time.Time
	claimed     bool
	lastError   string
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok {
			mu.stageEvent(record)
			return nil
		}
	}
	o.append(record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range records {
		o.records = append(o.records, &outboxEntry{record: rec})
	}
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for _, e := range o.records {
		if e.claimed || e.nextAttempt.After(now) {
			continue
		}
		e.claimed = true
		return &infraoutbox.Message{
			ID:         e.record.ID,
			Name:       e.record.Name,
			Payload:    e.record.Payload,
			OccurredAt: e.record.OccurredAt,
			Aggregate:  e.record.Aggregate,
			Headers:    e.record.Headers,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

// MarkSent drops the record.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.records {
		if e.record.ID == id {
			o.records = append(o.records[:i], o.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.records {
		if e.record.ID == id {
			e.claimed = false
			e.attempts++
			e.nextAttempt = next
			e.lastError = errMsg
		}
	}
	return nil
}

// Pending returns the records not yet published.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.records))
	for _, e := range o.records {
		out = append(out, e.record)
	}
	return out
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
