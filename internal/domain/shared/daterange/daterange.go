package daterange

import (
	"errors"

	"luxrent/internal/domain/shared/dateonly"
)

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
)

// DateRange is a rental window. Start is the pick-up day and End the return
// day; both are calendar days of the rental, so Contains and Overlaps treat the
// range as inclusive on both ends.
type DateRange struct {
	Start dateonly.Date `json:"start"`
	End   dateonly.Date `json:"end"`
}

func New(start, end dateonly.Date) (DateRange, error) {
	dr := DateRange{Start: start, End: end}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days is the number of days between Start and End. It is zero or negative for
// ranges that do not validate.
func (dr DateRange) Days() int {
	return dr.End.DaysSince(dr.Start)
}

func (dr DateRange) Contains(d dateonly.Date) bool {
	return !d.Before(dr.Start) && !d.After(dr.End)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.Start.After(other.End) && !other.Start.After(dr.End)
}

func (dr DateRange) String() string {
	return dr.Start.String() + ".." + dr.End.String()
}
