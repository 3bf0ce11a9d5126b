package booking

import (
	"context"
	"errors"
	"log/slog"

	"luxrent/internal/app/commands"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/outbox"
	"luxrent/internal/app/uow"
	domainavailability "luxrent/internal/domain/availability"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/shared/dateonly"
)

const applyDecisionKey = "booking.apply_decision"

type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// ApplyDecisionCommand mirrors a booking decision published on the event bus
// onto the car calendar: accepted requests block their dates, rejected ones
// release whatever block they hold.
type ApplyDecisionCommand struct {
	Decision  Decision `validate:"oneof=accepted rejected"`
	RequestID string   `validate:"required"`
	CarID     string   `validate:"required"`
	Start     dateonly.Date
	End       dateonly.Date
}

func (c ApplyDecisionCommand) Key() string { return applyDecisionKey }

type ApplyDecisionResult struct {
	Changed bool `json:"changed"`
}

type ApplyDecisionHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *ApplyDecisionHandler) Handle(ctx context.Context, cmd ApplyDecisionCommand) (*ApplyDecisionResult, error) {
	managed, err := uow.Begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer managed.Close()
	ctx = managed.Ctx

	car, err := managed.Unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
	if err != nil {
		return nil, err
	}

	now := h.Clock.Time()
	switch cmd.Decision {
	case DecisionAccepted:
		err = car.Calendar.Block(cmd.Start, cmd.End, cmd.RequestID, now)
	case DecisionRejected:
		err = car.Calendar.Release(cmd.RequestID, now)
		if errors.Is(err, domainavailability.ErrRangeNotFound) {
			err = nil
		}
	default:
		return nil, ErrUnknownDecision
	}
	if err != nil {
		return nil, err
	}

	evs := car.Calendar.Drain()
	if len(evs) == 0 {
		return &ApplyDecisionResult{}, nil
	}
	if err := managed.Unit.Cars().Save(ctx, car); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, evs); err != nil {
		return nil, err
	}
	if err := managed.Commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking decision applied to calendar", "car_id", car.ID, "request_id", cmd.RequestID, "decision", cmd.Decision)
	}
	return &ApplyDecisionResult{Changed: true}, nil
}

var ErrUnknownDecision = errors.New("booking: unknown decision")

var _ commands.Handler[ApplyDecisionCommand, *ApplyDecisionResult] = (*ApplyDecisionHandler)(nil)
