package booking

import (
	"context"
	"log/slog"
	"strings"

	"luxrent/internal/app/commands"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/outbox"
	"luxrent/internal/app/uow"
	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
)

const (
	acceptRequestKey    = "booking.accept"
	rejectRequestKey    = "booking.reject"
	defaultRejectReason = "declined"
)

type AcceptRequestCommand struct {
	RequestID string `validate:"required"`
}

func (c AcceptRequestCommand) Key() string { return acceptRequestKey }

type RejectRequestCommand struct {
	RequestID string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (c RejectRequestCommand) Key() string { return rejectRequestKey }

type DecisionResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// AcceptRequestHandler accepts a pending request and blocks its dates on the
// car in the same unit of work.
type AcceptRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *AcceptRequestHandler) Handle(ctx context.Context, cmd AcceptRequestCommand) (*DecisionResult, error) {
	managed, err := uow.Begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer managed.Close()
	ctx = managed.Ctx

	request, err := managed.Unit.Requests().ByID(ctx, domainbooking.RequestID(strings.TrimSpace(cmd.RequestID)))
	if err != nil {
		return nil, err
	}
	car, err := managed.Unit.Cars().ByID(ctx, domaincars.CarID(request.CarID))
	if err != nil {
		return nil, err
	}

	now := h.Clock.Time()
	if err := request.Accept(now); err != nil {
		return nil, err
	}
	if err := car.Calendar.Block(request.Range.Start, request.Range.End, string(request.ID), now); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("booking request overlaps the calendar", "request_id", request.ID, "car_id", car.ID, "error", err)
		}
		return nil, err
	}

	if err := managed.Unit.Cars().Save(ctx, car); err != nil {
		return nil, err
	}
	if err := managed.Unit.Requests().Save(ctx, request); err != nil {
		return nil, err
	}
	pending := append(request.Drain(), car.Calendar.Drain()...)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}
	if err := managed.Commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking request accepted", "request_id", request.ID, "car_id", car.ID, "start", request.Range.Start, "end", request.Range.End)
	}
	return &DecisionResult{RequestID: string(request.ID), Status: string(request.Status)}, nil
}

type RejectRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *RejectRequestHandler) Handle(ctx context.Context, cmd RejectRequestCommand) (*DecisionResult, error) {
	managed, err := uow.Begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer managed.Close()
	ctx = managed.Ctx

	request, err := managed.Unit.Requests().ByID(ctx, domainbooking.RequestID(strings.TrimSpace(cmd.RequestID)))
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = defaultRejectReason
	}
	if err := request.Reject(reason, h.Clock.Time()); err != nil {
		return nil, err
	}
	if err := saveWithEvents(ctx, managed.Unit, h.Outbox, h.Encoder, request); err != nil {
		return nil, err
	}
	if err := managed.Commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking request rejected", "request_id", request.ID, "car_id", request.CarID, "reason", reason)
	}
	return &DecisionResult{RequestID: string(request.ID), Status: string(request.Status), Reason: request.Reason}, nil
}

func saveWithEvents(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, enc outbox.EventEncoder, request *domainbooking.Request) error {
	if err := unit.Requests().Save(ctx, request); err != nil {
		return err
	}
	return outbox.RecordDomainEvents(ctx, box, enc, request.Drain())
}

var (
	_ commands.Handler[AcceptRequestCommand, *DecisionResult] = (*AcceptRequestHandler)(nil)
	_ commands.Handler[RejectRequestCommand, *DecisionResult] = (*RejectRequestHandler)(nil)
)
