package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"luxrent/internal/app/commands"
	bookingapp "luxrent/internal/app/handlers/booking"
	appoutbox "luxrent/internal/app/outbox"
	domainavailability "luxrent/internal/domain/availability"
	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/shared/dateonly"
)

// Inbox deduplicates deliveries by event id.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

var errMalformedEvent = errors.New("kafka: malformed event")

type envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Correlation string          `json:"correlationid"`
	Data        json.RawMessage `json:"data"`
}

type decisionData struct {
	RequestID string `json:"request_id"`
	CarID     string `json:"car_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// DecisionHandler applies booking.accepted.v1 and booking.rejected.v1 events to
// car calendars. Other event types on the topic are acknowledged and skipped.
type DecisionHandler struct {
	Commands commands.Bus
	Inbox    Inbox
	Logger   *slog.Logger
}

func (h *DecisionHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt envelope
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger().Warn("dropping undecodable event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	decision, ok := decisionFor(evt.Type)
	if !ok {
		return nil
	}
	cmd, err := decodeDecision(decision, evt.Data)
	if err != nil {
		h.logger().Warn("dropping malformed decision", "event_id", evt.ID, "type", evt.Type, "error", err)
		return nil
	}

	if h.Inbox != nil && evt.ID != "" {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().Debug("duplicate event skipped", "event_id", evt.ID)
			return nil
		}
	}

	correlation := evt.Correlation
	if correlation == "" {
		correlation = evt.ID
	}
	ctx = appoutbox.WithCorrelationID(ctx, correlation)
	_, err = commands.Dispatch[bookingapp.ApplyDecisionCommand, *bookingapp.ApplyDecisionResult](ctx, h.Commands, cmd)
	if err == nil {
		return nil
	}
	if permanent(err) {
		h.logger().Warn("booking decision not applied", "event_id", evt.ID, "request_id", cmd.RequestID, "car_id", cmd.CarID, "error", err)
		return nil
	}
	if h.Inbox != nil && evt.ID != "" {
		if ferr := h.Inbox.Forget(ctx, evt.ID); ferr != nil {
			return errors.Join(err, ferr)
		}
	}
	return err
}

func decisionFor(eventType string) (bookingapp.Decision, bool) {
	switch strings.TrimSuffix(eventType, ".v1") {
	case domainbooking.EventAccepted:
		return bookingapp.DecisionAccepted, true
	case domainbooking.EventRejected:
		return bookingapp.DecisionRejected, true
	}
	return "", false
}

func decodeDecision(decision bookingapp.Decision, raw json.RawMessage) (bookingapp.ApplyDecisionCommand, error) {
	var data decisionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return bookingapp.ApplyDecisionCommand{}, fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if data.RequestID == "" || data.CarID == "" {
		return bookingapp.ApplyDecisionCommand{}, fmt.Errorf("%w: request_id and car_id required", errMalformedEvent)
	}
	cmd := bookingapp.ApplyDecisionCommand{Decision: decision, RequestID: data.RequestID, CarID: data.CarID}
	if decision == bookingapp.DecisionAccepted {
		start, err := dateonly.Parse(data.Start)
		if err != nil {
			return cmd, fmt.Errorf("%w: start: %v", errMalformedEvent, err)
		}
		end, err := dateonly.Parse(data.End)
		if err != nil {
			return cmd, fmt.Errorf("%w: end: %v", errMalformedEvent, err)
		}
		cmd.Start, cmd.End = start, end
	}
	return cmd, nil
}

// permanent errors will fail the same way on every redelivery.
func permanent(err error) bool {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	return errors.Is(err, domainavailability.ErrOverlappingRange) ||
		errors.Is(err, domainavailability.ErrInvalidBlock) ||
		errors.Is(err, domaincars.ErrCarNotFound) ||
		errors.Is(err, bookingapp.ErrUnknownDecision)
}

func (h *DecisionHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*DecisionHandler)(nil)
