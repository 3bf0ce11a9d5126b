package outbox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	appoutbox "luxrent/internal/app/outbox"
)

// Message is a claimed outbox record waiting to be published.
type Message struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
	Attempts   int
}

// Source hands out records to publish and tracks their delivery state.
type Source interface {
	Claim(ctx context.Context, workerID string) (*Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the outbox into the broker as CloudEvents, one record per
// claim, on every tick.
type Worker struct {
	Store       Source
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
	// BatchSize caps the records published per tick.
	BatchSize int
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger().Error("outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes up to BatchSize records and returns how many were sent.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for i := 0; i < w.batchSize(); i++ {
		ok, err := w.processOnce(ctx)
		if err != nil {
			return sent, err
		}
		if !ok {
			return sent, nil
		}
		sent++
	}
	return sent, nil
}

// processOnce reports false when there was nothing to claim or the claimed
// record failed and was rescheduled.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	msg, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || msg == nil {
		return false, err
	}
	topic := TopicFor(w.TopicPrefix, msg.Name)
	payload, headers, err := w.formatPayload(msg)
	if err != nil {
		return false, w.fail(ctx, msg, err)
	}
	if err := w.Producer.Publish(ctx, topic, msg.Aggregate, payload, headers); err != nil {
		return false, w.fail(ctx, msg, err)
	}
	if err := w.Store.MarkSent(ctx, msg.ID); err != nil {
		return false, err
	}
	w.logger().Debug("outbox event published", "id", msg.ID, "name", msg.Name, "topic", topic)
	return true, nil
}

func (w *Worker) fail(ctx context.Context, msg *Message, cause error) error {
	w.logger().Warn("outbox publish failed", "id", msg.ID, "name", msg.Name, "attempts", msg.Attempts+1, "error", cause)
	return w.Store.MarkFailed(ctx, msg.ID, w.nextRetry(msg.Attempts), cause.Error())
}

// CloudEvent is the envelope written to the broker.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	CorrelationID   string          `json:"correlationid,omitempty"`
	Data            json.RawMessage `json:"data"`
}

func (w *Worker) formatPayload(msg *Message) ([]byte, map[string]string, error) {
	if !json.Valid(msg.Payload) {
		return nil, nil, errors.New("outbox: payload is not valid json")
	}
	evt := CloudEvent{
		SpecVersion:     "1.0",
		ID:              msg.ID,
		Type:            msg.Name + ".v1",
		Source:          w.source(),
		Subject:         msg.Aggregate,
		Time:            msg.OccurredAt.UTC(),
		DataContentType: "application/json",
		TraceParent:     msg.Headers["traceparent"],
		CorrelationID:   msg.Headers[appoutbox.HeaderCorrelationID],
		Data:            json.RawMessage(msg.Payload),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce_type":      evt.Type,
		"ce_id":        evt.ID,
	}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// TopicFor maps an event name such as "booking.accepted" to its topic,
// "<prefix>booking.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 50
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://luxrent"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// LogProducer writes events to the log instead of a broker. Used when no
// brokers are configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "type", headers["ce_type"], "bytes", len(payload))
	return nil
}
