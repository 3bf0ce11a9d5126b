package pricing

import "luxrent/internal/domain/shared/money"

// Status tells the presentation layer how to render a quote.
type Status string

const (
	StatusOK          Status = "ok"
	StatusSelectDates Status = "select_dates"
	StatusUnavailable Status = "unavailable"
)

// Result is a computed quote. Total is zero whenever Status is not StatusOK.
type Result struct {
	Days    int         `json:"days"`
	Tier    Tier        `json:"tier"`
	Periods int         `json:"periods"`
	Rate    money.Money `json:"rate"`
	Total   money.Money `json:"total"`
	Status  Status      `json:"status"`
}

func (r Result) Available() bool {
	return r.Status == StatusOK
}

// Label is the text the booking form shows in place of the price.
func (r Result) Label() string {
	switch r.Status {
	case StatusSelectDates:
		return "Select dates"
	case StatusUnavailable:
		return "N/A"
	default:
		return r.Total.String()
	}
}

// Periods counts billing periods for days, rounding up: 8 days on the weekly
// tier are two weeks.
func Periods(days int, tier Tier) int {
	if days <= 0 {
		return 0
	}
	period := tier.PeriodDays()
	return (days + period - 1) / period
}

// Quote prices a rental of days under tier. It never fails: non-positive
// durations and missing rates price at zero.
func Quote(days int, tier Tier, rates RateSchedule) money.Money {
	return QuoteFor(days, tier, rates).Total
}

// QuoteFor is Quote with the breakdown and a status for the caller.
func QuoteFor(days int, tier Tier, rates RateSchedule) Result {
	if tier == "" {
		tier = TierDaily
	}
	res := Result{Days: days, Tier: tier, Rate: rates.Rate(tier)}
	if days <= 0 {
		res.Days = 0
		res.Status = StatusSelectDates
		return res
	}
	res.Periods = Periods(days, tier)
	if res.Rate.IsZero() {
		res.Status = StatusUnavailable
		return res
	}
	res.Total = res.Rate.Multiply(int64(res.Periods))
	res.Status = StatusOK
	return res
}
