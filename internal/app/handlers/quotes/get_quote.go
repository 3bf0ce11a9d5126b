package quotes

import (
	"context"
	"log/slog"

	"luxrent/internal/app/dto"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/queries"
	"luxrent/internal/app/uow"
	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
)

const getQuoteKey = "quotes.get"

// GetQuoteQuery prices a car for a proposed range. Start and End may be nil
// while the customer is still picking dates.
type GetQuoteQuery struct {
	CarID string `validate:"required"`
	Start *dateonly.Date
	End   *dateonly.Date
	Tier  pricing.Tier `validate:"omitempty,oneof=daily weekly monthly"`
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	tier, err := pricing.ParseTier(string(q.Tier))
	if err != nil {
		return dto.Quote{}, err
	}

	unit, execCtx, cleanup, err := uow.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	car, err := unit.Cars().ByID(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		return dto.Quote{}, err
	}

	days := 0
	bookable := false
	if q.Start != nil && q.End != nil {
		if n, err := domainbooking.ValidateRange(*q.Start, *q.End); err == nil {
			days = n
			_, availErr := domainbooking.ValidateAvailable(*q.Start, *q.End, car.Blocked())
			bookable = availErr == nil && domainbooking.ValidateStart(*q.Start, h.Clock.Today()) == nil
		}
	}

	res := pricing.QuoteFor(days, tier, car.Pricing)
	if h.Logger != nil {
		h.Logger.Debug("quote computed", "car_id", car.ID, "days", days, "tier", tier, "status", res.Status, "total", res.Total.Int64())
	}
	return dto.MapQuote(string(car.ID), q.Start, q.End, res, bookable), nil
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)
