package availability

import (
	"luxrent/internal/domain/shared/daterange"
	"luxrent/internal/domain/shared/dateonly"
)

// BlockedRange is a period during which a car cannot be rented, inclusive on
// both ends. Reference identifies what produced the block (an accepted booking
// request, a maintenance slot entered in the back-office) and may be empty.
type BlockedRange struct {
	From      dateonly.Date `json:"from"`
	To        dateonly.Date `json:"to"`
	Reference string        `json:"reference,omitempty"`
}

func (b BlockedRange) Contains(d dateonly.Date) bool {
	return !d.Before(b.From) && !d.After(b.To)
}

// Span returns the block as a date range with the same inclusive bounds.
func (b BlockedRange) Span() daterange.DateRange {
	return daterange.DateRange{Start: b.From, End: b.To}
}

// Intersects reports whether any day of the inclusive window [start, end] is
// blocked by b.
func (b BlockedRange) Intersects(start, end dateonly.Date) bool {
	return b.Span().Overlaps(daterange.DateRange{Start: start, End: end})
}

// IsBlocked reports whether d falls inside any of the ranges.
func IsBlocked(d dateonly.Date, blocked []BlockedRange) bool {
	for _, b := range blocked {
		if b.Contains(d) {
			return true
		}
	}
	return false
}
