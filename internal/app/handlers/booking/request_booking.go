package booking

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"luxrent/internal/app/commands"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/middleware"
	"luxrent/internal/app/outbox"
	"luxrent/internal/app/uow"
	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/daterange"
	"luxrent/internal/domain/shared/dateonly"
)

const requestBookingKey = "booking.request"

type CustomerInput struct {
	Name  string `validate:"required,max=200"`
	Email string `validate:"omitempty,email"`
	Phone string `validate:"omitempty,max=40"`
}

// RequestBookingCommand is encoded to fingerprint idempotent retries, so
// per-attempt fields are excluded from JSON.
type RequestBookingCommand struct {
	CommandID       string        `json:"-"`
	CarID           string        `json:"car_id" validate:"required"`
	Start           dateonly.Date `json:"start"`
	End             dateonly.Date `json:"end"`
	Tier            pricing.Tier  `json:"tier" validate:"omitempty,oneof=daily weekly monthly"`
	Customer        CustomerInput `json:"customer"`
	Message         string        `json:"message" validate:"max=2000"`
	IdempotencyKeyV string        `json:"-"`
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Days      int    `json:"days"`
	Total     int64  `json:"total_price"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	tier, err := pricing.ParseTier(string(cmd.Tier))
	if err != nil {
		return nil, err
	}
	if _, err := domainbooking.ValidateRange(cmd.Start, cmd.End); err != nil {
		return nil, err
	}
	if err := domainbooking.ValidateStart(cmd.Start, h.Clock.Today()); err != nil {
		return nil, err
	}

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
	days, err := domainbooking.ValidateAvailable(cmd.Start, cmd.End, car.Blocked())
	if err != nil {
		return nil, err
	}
	quote := pricing.QuoteFor(days, tier, car.Pricing)

	id := cmd.CommandID
	if id == "" {
		id = uuid.NewString()
	}
	request, err := domainbooking.NewRequest(domainbooking.CreateParams{
		ID:    domainbooking.RequestID(id),
		CarID: string(car.ID),
		Range: daterange.DateRange{Start: cmd.Start, End: cmd.End},
		Quote: quote,
		Customer: domainbooking.Customer{
			Name:  cmd.Customer.Name,
			Email: cmd.Customer.Email,
			Phone: cmd.Customer.Phone,
		},
		Message:   cmd.Message,
		CreatedAt: h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}

	if err := managed.Unit.Requests().Save(ctx, request); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, request.Drain()); err != nil {
		return nil, err
	}
	if err := managed.Commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking request submitted", "request_id", request.ID, "car_id", request.CarID, "days", request.Days, "tier", request.Tier, "total", request.Total.Int64())
	}

	return &RequestBookingResult{
		RequestID: string(request.ID),
		Status:    string(request.Status),
		Days:      request.Days,
		Total:     request.Total.Int64(),
	}, nil
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
