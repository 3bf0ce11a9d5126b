package availability

import (
	"time"

	"luxrent/internal/domain/shared/dateonly"
)

type CalendarBlocked struct {
	CarID     string        `json:"car_id"`
	From      dateonly.Date `json:"from"`
	To        dateonly.Date `json:"to"`
	Reference string        `json:"reference,omitempty"`
	At        time.Time     `json:"at"`
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.CarID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	CarID     string        `json:"car_id"`
	From      dateonly.Date `json:"from"`
	To        dateonly.Date `json:"to"`
	Reference string        `json:"reference,omitempty"`
	At        time.Time     `json:"at"`
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return e.CarID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

type CalendarOverbookingPrevented struct {
	CarID     string        `json:"car_id"`
	From      dateonly.Date `json:"from"`
	To        dateonly.Date `json:"to"`
	Reference string        `json:"reference,omitempty"`
	At        time.Time     `json:"at"`
}

func (e CalendarOverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e CalendarOverbookingPrevented) AggregateID() string   { return e.CarID }
func (e CalendarOverbookingPrevented) OccurredAt() time.Time { return e.At }

func CalendarBlockedEvent(carID string, from, to dateonly.Date, reference string, at time.Time) CalendarBlocked {
	return CalendarBlocked{CarID: carID, From: from, To: to, Reference: reference, At: at.UTC()}
}

func CalendarReleasedEvent(carID string, from, to dateonly.Date, reference string, at time.Time) CalendarReleased {
	return CalendarReleased{CarID: carID, From: from, To: to, Reference: reference, At: at.UTC()}
}

func CalendarOverbookingPreventedEvent(carID string, from, to dateonly.Date, reference string, at time.Time) CalendarOverbookingPrevented {
	return CalendarOverbookingPrevented{CarID: carID, From: from, To: to, Reference: reference, At: at.UTC()}
}
