package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarBlock(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	cal := NewCalendar("car-1", []BlockedRange{{From: d("2025-07-10"), To: d("2025-07-15")}})

	t.Run("Free window", func(t *testing.T) {
		require.NoError(t, cal.Block(d("2025-06-01"), d("2025-06-05"), "req-1", now))
		require.Len(t, cal.Blocks, 2)
		assert.Equal(t, "2025-06-01", cal.Blocks[0].From.String(), "blocks are kept sorted")
		events := cal.Drain()
		require.Len(t, events, 1)
		assert.Equal(t, "calendar.blocked", events[0].EventName())
		assert.Equal(t, "car-1", events[0].AggregateID())
	})

	t.Run("Replay with same reference is a no-op", func(t *testing.T) {
		require.NoError(t, cal.Block(d("2025-06-01"), d("2025-06-05"), "req-1", now))
		assert.Len(t, cal.Blocks, 2)
		assert.Empty(t, cal.PendingEvents())
	})

	t.Run("Overlap on the boundary day", func(t *testing.T) {
		err := cal.Block(d("2025-07-15"), d("2025-07-18"), "req-2", now)
		assert.ErrorIs(t, err, ErrOverlappingRange)
		events := cal.Drain()
		require.Len(t, events, 1)
		assert.Equal(t, "calendar.overbooking_prevented", events[0].EventName())
	})

	t.Run("Inverted window", func(t *testing.T) {
		assert.ErrorIs(t, cal.Block(d("2025-08-05"), d("2025-08-01"), "req-3", now), ErrInvalidBlock)
	})

	t.Run("Single day block", func(t *testing.T) {
		require.NoError(t, cal.Block(d("2025-08-01"), d("2025-08-01"), "", now))
		assert.False(t, cal.CanBlock(d("2025-08-01"), d("2025-08-01")))
		cal.ClearEvents()
	})
}

func TestCalendarRelease(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	cal := NewCalendar("car-1", nil)
	require.NoError(t, cal.Block(d("2025-06-01"), d("2025-06-05"), "req-1", now))
	cal.ClearEvents()

	require.NoError(t, cal.Release("req-1", now))
	assert.Empty(t, cal.Blocks)
	events := cal.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, "calendar.released", events[0].EventName())

	assert.ErrorIs(t, cal.Release("req-1", now), ErrRangeNotFound)
	assert.ErrorIs(t, cal.Release("", now), ErrRangeNotFound)
}

func TestNewCalendarCopiesBlocks(t *testing.T) {
	src := []BlockedRange{{From: d("2025-07-10"), To: d("2025-07-15")}}
	cal := NewCalendar("car-1", src)
	cal.Blocks[0].Reference = "changed"
	assert.Empty(t, src[0].Reference)
}
