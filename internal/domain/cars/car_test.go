package cars

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxrent/internal/domain/availability"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
)

func TestNewCar(t *testing.T) {
	car, err := NewCar(CreateParams{
		ID:      " car-1 ",
		Brand:   "Rolls-Royce",
		Model:   " Ghost ",
		Pricing: pricing.RateSchedule{Daily: 900},
		Unavailable: []availability.BlockedRange{
			{From: dateonly.MustParse("2025-07-10"), To: dateonly.MustParse("2025-07-15")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, CarID("car-1"), car.ID)
	assert.Equal(t, "Rolls-Royce Ghost", car.Title())
	assert.Len(t, car.Blocked(), 1)
	assert.Equal(t, "car-1", car.Calendar.CarID)

	_, err = NewCar(CreateParams{ID: "  "})
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestCloneIsIndependent(t *testing.T) {
	car, err := NewCar(CreateParams{ID: "car-1"})
	require.NoError(t, err)

	cp := car.Clone()
	require.NoError(t, cp.Calendar.Block(dateonly.MustParse("2025-08-01"), dateonly.MustParse("2025-08-03"), "req-1", time.Now()))
	assert.Len(t, cp.Blocked(), 1)
	assert.Empty(t, car.Blocked())
	assert.Empty(t, car.Calendar.PendingEvents())
}
