package dto

import (
	"time"

	domainbooking "luxrent/internal/domain/booking"
	"luxrent/internal/domain/shared/dateonly"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type BookingRequest struct {
	ID        string        `json:"request_id"`
	CarID     string        `json:"car_id"`
	Start     dateonly.Date `json:"start"`
	End       dateonly.Date `json:"end"`
	Days      int           `json:"days"`
	Tier      string        `json:"tier"`
	Total     int64         `json:"total_price"`
	Customer  Customer      `json:"customer"`
	Message   string        `json:"message,omitempty"`
	Status    string        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func MapBookingRequest(r *domainbooking.Request) BookingRequest {
	if r == nil {
		return BookingRequest{}
	}
	return BookingRequest{
		ID:    string(r.ID),
		CarID: r.CarID,
		Start: r.Range.Start,
		End:   r.Range.End,
		Days:  r.Days,
		Tier:  string(r.Tier),
		Total: r.Total.Int64(),
		Customer: Customer{
			Name:  r.Customer.Name,
			Email: r.Customer.Email,
			Phone: r.Customer.Phone,
		},
		Message:   r.Message,
		Status:    string(r.Status),
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
