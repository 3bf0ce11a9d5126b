package support

import (
	"time"

	"luxrent/internal/domain/shared/dateonly"
)

// Clock supplies "now" and the zone calendar dates are read in.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) Time() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Clock) Today() dateonly.Date {
	return dateonly.Today(c.Time(), c.location())
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
