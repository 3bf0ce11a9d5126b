package booking

import (
	"time"

	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/domain/shared/money"
)

const (
	EventRequested = "booking.requested"
	EventAccepted  = "booking.accepted"
	EventRejected  = "booking.rejected"
)

type RequestSubmitted struct {
	RequestID RequestID     `json:"request_id"`
	CarID     string        `json:"car_id"`
	Start     dateonly.Date `json:"start"`
	End       dateonly.Date `json:"end"`
	Days      int           `json:"days"`
	Tier      pricing.Tier  `json:"tier"`
	Total     money.Money   `json:"total_price"`
	At        time.Time     `json:"at"`
}

func (e RequestSubmitted) EventName() string     { return EventRequested }
func (e RequestSubmitted) AggregateID() string   { return string(e.RequestID) }
func (e RequestSubmitted) OccurredAt() time.Time { return e.At }

type RequestAccepted struct {
	RequestID RequestID     `json:"request_id"`
	CarID     string        `json:"car_id"`
	Start     dateonly.Date `json:"start"`
	End       dateonly.Date `json:"end"`
	At        time.Time     `json:"at"`
}

func (e RequestAccepted) EventName() string     { return EventAccepted }
func (e RequestAccepted) AggregateID() string   { return string(e.RequestID) }
func (e RequestAccepted) OccurredAt() time.Time { return e.At }

type RequestRejected struct {
	RequestID RequestID     `json:"request_id"`
	CarID     string        `json:"car_id"`
	Start     dateonly.Date `json:"start"`
	End       dateonly.Date `json:"end"`
	Reason    string        `json:"reason,omitempty"`
	At        time.Time     `json:"at"`
}

func (e RequestRejected) EventName() string     { return EventRejected }
func (e RequestRejected) AggregateID() string   { return string(e.RequestID) }
func (e RequestRejected) OccurredAt() time.Time { return e.At }
