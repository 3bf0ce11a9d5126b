package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"luxrent/internal/domain/booking"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/domain/shared/money"
)

type quoteOptions struct {
	start, end             string
	tier                   string
	daily, weekly, monthly string
	asJSON                 bool
}

var quoteOpts quoteOptions

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a rental window without touching storage",
	Example: `  luxrent quote --start 2025-06-01 --end 2025-06-10 --tier weekly --weekly 1500
  luxrent quote --start 2025-06-01 --end 2025-06-05 --daily 300 --json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runQuote(cmd.OutOrStdout(), quoteOpts)
	},
}

func init() {
	flags := quoteCmd.Flags()
	flags.StringVar(&quoteOpts.start, "start", "", "first rental day (YYYY-MM-DD)")
	flags.StringVar(&quoteOpts.end, "end", "", "return day (YYYY-MM-DD)")
	flags.StringVar(&quoteOpts.tier, "tier", "daily", "pricing tier: daily, weekly or monthly")
	flags.StringVar(&quoteOpts.daily, "daily", "", "daily rate")
	flags.StringVar(&quoteOpts.weekly, "weekly", "", "weekly rate")
	flags.StringVar(&quoteOpts.monthly, "monthly", "", "monthly rate")
	flags.BoolVar(&quoteOpts.asJSON, "json", false, "print the quote as JSON")
	_ = quoteCmd.MarkFlagRequired("start")
	_ = quoteCmd.MarkFlagRequired("end")
}

func runQuote(w io.Writer, opts quoteOptions) error {
	start, err := dateonly.Parse(opts.start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := dateonly.Parse(opts.end)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}
	tier, err := pricing.ParseTier(opts.tier)
	if err != nil {
		return err
	}
	days, err := booking.ValidateRange(start, end)
	if err != nil {
		return err
	}
	rates := pricing.RateSchedule{
		Daily:   money.Coerce(opts.daily),
		Weekly:  money.Coerce(opts.weekly),
		Monthly: money.Coerce(opts.monthly),
	}
	res := pricing.QuoteFor(days, tier, rates)

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintf(w, "%s -> %s: %d days, %s tier, %d x %s = %s\n",
		start, end, res.Days, res.Tier, res.Periods, res.Rate, res.Label())
	return err
}
