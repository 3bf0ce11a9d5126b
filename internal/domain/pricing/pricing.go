package pricing

import (
	"errors"
	"strings"

	"luxrent/internal/domain/shared/money"
)

var ErrUnknownTier = errors.New("pricing: tier must be daily, weekly or monthly")

// Tier is the billing granularity chosen for a quote.
type Tier string

const (
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

// ParseTier accepts daily, weekly or monthly in any case. An empty value means
// daily.
func ParseTier(raw string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TierDaily:
		return TierDaily, nil
	case TierWeekly:
		return TierWeekly, nil
	case TierMonthly:
		return TierMonthly, nil
	default:
		return "", ErrUnknownTier
	}
}

// PeriodDays is the length of one billing period of the tier.
func (t Tier) PeriodDays() int {
	switch t {
	case TierWeekly:
		return 7
	case TierMonthly:
		return 30
	default:
		return 1
	}
}

// RateSchedule holds the per-period prices of one car.
type RateSchedule struct {
	Daily   money.Money `json:"daily"`
	Weekly  money.Money `json:"weekly"`
	Monthly money.Money `json:"monthly"`
}

// Rate returns the price of one period of the tier.
func (r RateSchedule) Rate(t Tier) money.Money {
	switch t {
	case TierWeekly:
		return r.Weekly
	case TierMonthly:
		return r.Monthly
	default:
		return r.Daily
	}
}
