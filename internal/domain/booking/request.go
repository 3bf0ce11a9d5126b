package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/daterange"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/domain/shared/events"
	"luxrent/internal/domain/shared/money"
)

var (
	ErrRequestNotFound   = errors.New("booking: request not found")
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrCustomerRequired  = errors.New("booking: customer name and contact are required")
	ErrQuoteUnavailable  = errors.New("booking: no price available for the selected tier")
)

type RequestID string

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// ReasonExpired is recorded when a pending request is rejected because its
// start date went by without a decision.
const ReasonExpired = "expired"

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Request is a customer's booking request for one car.
type Request struct {
	ID        RequestID
	CarID     string
	Range     daterange.DateRange
	Days      int
	Tier      pricing.Tier
	Total     money.Money
	Customer  Customer
	Message   string
	Status    Status
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RequestID) (*Request, error)
	Save(ctx context.Context, request *Request) error
	ListPending(ctx context.Context) ([]*Request, error)
}

type CreateParams struct {
	ID        RequestID
	CarID     string
	Range     daterange.DateRange
	Quote     pricing.Result
	Customer  Customer
	Message   string
	CreatedAt time.Time
}

func NewRequest(params CreateParams) (*Request, error) {
	if strings.TrimSpace(params.Customer.Name) == "" ||
		(strings.TrimSpace(params.Customer.Email) == "" && strings.TrimSpace(params.Customer.Phone) == "") {
		return nil, ErrCustomerRequired
	}
	if strings.TrimSpace(params.CarID) == "" {
		return nil, errors.New("booking: car id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, ErrNonPositiveDuration
	}
	if !params.Quote.Available() {
		return nil, ErrQuoteUnavailable
	}
	now := params.CreatedAt.UTC()
	r := &Request{
		ID:        params.ID,
		CarID:     params.CarID,
		Range:     params.Range,
		Days:      params.Quote.Days,
		Tier:      params.Quote.Tier,
		Total:     params.Quote.Total,
		Customer:  params.Customer,
		Message:   strings.TrimSpace(params.Message),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(RequestSubmitted{
		RequestID: r.ID,
		CarID:     r.CarID,
		Start:     r.Range.Start,
		End:       r.Range.End,
		Days:      r.Days,
		Tier:      r.Tier,
		Total:     r.Total,
		At:        now,
	})
	return r, nil
}

func (r *Request) Accept(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = StatusAccepted
	r.UpdatedAt = now.UTC()
	r.Record(RequestAccepted{RequestID: r.ID, CarID: r.CarID, Start: r.Range.Start, End: r.Range.End, At: r.UpdatedAt})
	return nil
}

func (r *Request) Reject(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = StatusRejected
	r.Reason = strings.TrimSpace(reason)
	r.UpdatedAt = now.UTC()
	r.Record(RequestRejected{RequestID: r.ID, CarID: r.CarID, Start: r.Range.Start, End: r.Range.End, Reason: r.Reason, At: r.UpdatedAt})
	return nil
}

// Stale reports whether a pending request can no longer be honored because
// its start date is before today.
func (r *Request) Stale(today dateonly.Date) bool {
	return r.Status == StatusPending && r.Range.Start.Before(today)
}

// Clone returns a copy without pending events.
func (r *Request) Clone() *Request {
	cp := *r
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}
