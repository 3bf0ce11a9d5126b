package main

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxrent/internal/domain/booking"
	"luxrent/internal/domain/pricing"
)

func TestRunQuote(t *testing.T) {
	t.Run("Weekly text", func(t *testing.T) {
		var out bytes.Buffer
		err := runQuote(&out, quoteOptions{start: "2025-06-01", end: "2025-06-10", tier: "weekly", weekly: "1500"})
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01 -> 2025-06-10: 9 days, weekly tier, 2 x 1500 = 3000\n", out.String())
	})

	t.Run("Missing rate", func(t *testing.T) {
		var out bytes.Buffer
		err := runQuote(&out, quoteOptions{start: "2025-06-01", end: "2025-06-20", tier: "monthly", daily: "300"})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "= N/A")
	})

	t.Run("JSON", func(t *testing.T) {
		var out bytes.Buffer
		err := runQuote(&out, quoteOptions{start: "2025-06-01", end: "2025-06-05", daily: "300", asJSON: true})
		require.NoError(t, err)
		var res pricing.Result
		require.NoError(t, json.Unmarshal(out.Bytes(), &res))
		assert.EqualValues(t, 1200, res.Total)
		assert.Equal(t, pricing.StatusOK, res.Status)
	})

	t.Run("Inverted range", func(t *testing.T) {
		err := runQuote(&bytes.Buffer{}, quoteOptions{start: "2025-06-05", end: "2025-06-01", daily: "300"})
		assert.ErrorIs(t, err, booking.ErrNonPositiveDuration)
	})

	t.Run("Unknown tier", func(t *testing.T) {
		err := runQuote(&bytes.Buffer{}, quoteOptions{start: "2025-06-01", end: "2025-06-05", tier: "hourly"})
		assert.ErrorIs(t, err, pricing.ErrUnknownTier)
	})
}
