package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxrent/internal/app/handlers/support"
	domainavailability "luxrent/internal/domain/availability"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/infra/storage/memory"
)

func newHandler(t *testing.T) *GetCalendarHandler {
	t.Helper()
	cars := memory.NewCarRepository()
	car, err := domaincars.NewCar(domaincars.CreateParams{
		ID: "urus",
		Unavailable: []domainavailability.BlockedRange{
			{From: dateonly.MustParse("2025-02-10"), To: dateonly.MustParse("2025-02-12")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, cars.Save(context.Background(), car))
	return &GetCalendarHandler{
		UoWFactory: &memory.Factory{CarsRepo: cars, RequestsRepo: memory.NewRequestRepository()},
		Clock:      support.Clock{Now: func() time.Time { return time.Date(2025, time.February, 5, 23, 30, 0, 0, time.UTC) }},
	}
}

func TestGetCalendar(t *testing.T) {
	h := newHandler(t)

	t.Run("Defaults to the current month", func(t *testing.T) {
		res, err := h.Handle(context.Background(), GetCalendarQuery{CarID: "urus"})
		require.NoError(t, err)
		assert.Equal(t, "2025-02", res.Month)
		assert.Equal(t, "start", res.Role)
		assert.Equal(t, "2025-02-05", res.Today.String())
		require.Len(t, res.Days, 28)
		assert.True(t, res.Days[3].Past)
		assert.True(t, res.Days[4].Selectable)
		assert.True(t, res.Days[10].Blocked)
		assert.False(t, res.Days[10].Selectable)
		require.Len(t, res.Blocks, 1)
		assert.Equal(t, "2025-02-10", res.Blocks[0].From.String())
	})

	t.Run("End role after a chosen start", func(t *testing.T) {
		start := dateonly.MustParse("2025-03-10")
		res, err := h.Handle(context.Background(), GetCalendarQuery{
			CarID: "urus",
			Year:  2025,
			Month: time.March,
			Role:  domainavailability.RoleEnd,
			Start: &start,
		})
		require.NoError(t, err)
		require.Len(t, res.Days, 31)
		assert.False(t, res.Days[9].Selectable, "end equal to start")
		assert.True(t, res.Days[10].Selectable)
		assert.Equal(t, &start, res.Start)
	})

	t.Run("Business time zone", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		zoned := *h
		zoned.Clock.Location = tokyo
		res, err := zoned.Handle(context.Background(), GetCalendarQuery{CarID: "urus"})
		require.NoError(t, err)
		assert.Equal(t, "2025-02-06", res.Today.String())
		assert.False(t, res.Days[4].Selectable)
	})

	t.Run("Unknown car", func(t *testing.T) {
		_, err := h.Handle(context.Background(), GetCalendarQuery{CarID: "missing"})
		assert.ErrorIs(t, err, domaincars.ErrCarNotFound)
	})
}
