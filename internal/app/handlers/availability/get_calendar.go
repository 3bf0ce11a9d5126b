package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"luxrent/internal/app/dto"
	"luxrent/internal/app/handlers/support"
	"luxrent/internal/app/queries"
	"luxrent/internal/app/uow"
	domainavailability "luxrent/internal/domain/availability"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/shared/dateonly"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery asks for one month of a car's calendar. A zero Year or Month
// means the current month.
type GetCalendarQuery struct {
	CarID string                           `validate:"required"`
	Year  int                              `validate:"omitempty,min=1970,max=9999"`
	Month time.Month                       `validate:"omitempty,min=1,max=12"`
	Role  domainavailability.SelectionRole `validate:"omitempty,oneof=start end"`
	Start *dateonly.Date
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.CalendarMonth, error) {
	unit, execCtx, cleanup, err := uow.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarMonth{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	car, err := unit.Cars().ByID(execCtx, domaincars.CarID(q.CarID))
	if err != nil {
		return dto.CalendarMonth{}, err
	}

	today := h.Clock.Today()
	year, month := q.Year, q.Month
	if year == 0 || month == 0 {
		year, month = today.Year(), today.Month()
	}
	role := q.Role
	if role == "" {
		role = domainavailability.RoleStart
	}

	blocked := car.Blocked()
	days := domainavailability.MonthView(year, month, today, blocked, role, q.Start)

	if h.Logger != nil {
		h.Logger.Debug("calendar evaluated", "car_id", car.ID, "year", year, "month", int(month), "role", role)
	}

	return dto.CalendarMonth{
		CarID:  string(car.ID),
		Month:  fmt.Sprintf("%04d-%02d", year, int(month)),
		Role:   string(role),
		Start:  q.Start,
		Today:  today,
		Days:   dto.MapCalendarDays(days),
		Blocks: dto.MapCalendarBlocks(blocked),
	}, nil
}

var _ queries.Handler[GetCalendarQuery, dto.CalendarMonth] = (*GetCalendarHandler)(nil)
