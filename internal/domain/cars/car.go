package cars

import (
	"context"
	"errors"
	"strings"

	"luxrent/internal/domain/availability"
	"luxrent/internal/domain/pricing"
)

var (
	ErrCarNotFound = errors.New("cars: car not found")
	ErrIDRequired  = errors.New("cars: id is required")
)

type CarID string

// Car is the booking-relevant slice of a catalog record: its rate schedule
// and the calendar of unavailable dates.
type Car struct {
	ID       CarID
	Brand    string
	Model    string
	Pricing  pricing.RateSchedule
	Calendar *availability.Calendar
	Version  int64
}

type Repository interface {
	ByID(ctx context.Context, id CarID) (*Car, error)
	Save(ctx context.Context, car *Car) error
}

type CreateParams struct {
	ID          CarID
	Brand       string
	Model       string
	Pricing     pricing.RateSchedule
	Unavailable []availability.BlockedRange
}

func NewCar(params CreateParams) (*Car, error) {
	id := CarID(strings.TrimSpace(string(params.ID)))
	if id == "" {
		return nil, ErrIDRequired
	}
	return &Car{
		ID:       id,
		Brand:    strings.TrimSpace(params.Brand),
		Model:    strings.TrimSpace(params.Model),
		Pricing:  params.Pricing,
		Calendar: availability.NewCalendar(string(id), params.Unavailable),
	}, nil
}

// Blocked returns the car's unavailable ranges.
func (c *Car) Blocked() []availability.BlockedRange {
	if c.Calendar == nil {
		return nil
	}
	return c.Calendar.Blocks
}

// Title is "Brand Model" with empty parts skipped.
func (c *Car) Title() string {
	return strings.TrimSpace(c.Brand + " " + c.Model)
}

// Clone returns a deep copy without pending events.
func (c *Car) Clone() *Car {
	cp := *c
	if c.Calendar != nil {
		cp.Calendar = availability.NewCalendar(c.Calendar.CarID, c.Calendar.Blocks)
	}
	return &cp
}
