package dto

import (
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
)

type Quote struct {
	CarID   string         `json:"car_id"`
	Start   *dateonly.Date `json:"start,omitempty"`
	End     *dateonly.Date `json:"end,omitempty"`
	Days    int            `json:"days"`
	Tier    string         `json:"tier"`
	Periods int            `json:"periods"`
	Rate    int64          `json:"rate"`
	Total   int64          `json:"total_price"`
	Status  string         `json:"status"`
	Label   string         `json:"label"`
	// Bookable is false when the range touches a blocked date or the price is
	// not available.
	Bookable bool `json:"bookable"`
}

func MapQuote(carID string, start, end *dateonly.Date, res pricing.Result, bookable bool) Quote {
	return Quote{
		CarID:    carID,
		Start:    start,
		End:      end,
		Days:     res.Days,
		Tier:     string(res.Tier),
		Periods:  res.Periods,
		Rate:     res.Rate.Int64(),
		Total:    res.Total.Int64(),
		Status:   string(res.Status),
		Label:    res.Label(),
		Bookable: bookable && res.Available(),
	}
}
