package availability

import (
	"time"

	"luxrent/internal/domain/shared/dateonly"
)

// Day is one calendar cell of a month view.
type Day struct {
	Date       dateonly.Date
	Selectable bool
	Past       bool
	Blocked    bool
}

// MonthView evaluates IsSelectable for every day of the given month.
func MonthView(year int, month time.Month, today dateonly.Date, blocked []BlockedRange, role SelectionRole, currentStart *dateonly.Date) []Day {
	first := dateonly.New(year, month, 1)
	days := make([]Day, 0, 31)
	for d := first; d.Month() == first.Month(); d = d.AddDays(1) {
		days = append(days, Day{
			Date:       d,
			Selectable: IsSelectable(d, today, blocked, role, currentStart),
			Past:       d.Before(today),
			Blocked:    IsBlocked(d, blocked),
		})
	}
	return days
}
