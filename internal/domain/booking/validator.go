package booking

import (
	"errors"

	"luxrent/internal/domain/availability"
	"luxrent/internal/domain/shared/dateonly"
)

var (
	ErrNonPositiveDuration = errors.New("booking: end date must be after start date")
	ErrBlockedDateInRange  = errors.New("booking: range contains an unavailable date")
	ErrStartInPast         = errors.New("booking: start date is in the past")
)

// ValidateRange checks ordering only and returns the rental length in days.
// Per-day availability is the resolver's job while the dates are picked.
func ValidateRange(start, end dateonly.Date) (int, error) {
	if start.IsZero() || end.IsZero() {
		return 0, ErrNonPositiveDuration
	}
	days := end.DaysSince(start)
	if days <= 0 {
		return 0, ErrNonPositiveDuration
	}
	return days, nil
}

// ValidateAvailable is ValidateRange plus a scan of the blocked ranges: no day
// of [start, end], bounds included, may be blocked. Ranges that did not come
// through the calendar picker are checked with this.
func ValidateAvailable(start, end dateonly.Date, blocked []availability.BlockedRange) (int, error) {
	days, err := ValidateRange(start, end)
	if err != nil {
		return 0, err
	}
	for _, b := range blocked {
		if b.Intersects(start, end) {
			return 0, ErrBlockedDateInRange
		}
	}
	return days, nil
}

// ValidateStart rejects retroactive bookings.
func ValidateStart(start, today dateonly.Date) error {
	if start.Before(today) {
		return ErrStartInPast
	}
	return nil
}
