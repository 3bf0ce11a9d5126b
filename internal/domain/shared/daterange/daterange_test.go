package daterange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxrent/internal/domain/shared/dateonly"
)

func d(s string) dateonly.Date { return dateonly.MustParse(s) }

func TestNew(t *testing.T) {
	dr, err := New(d("2025-06-01"), d("2025-06-05"))
	require.NoError(t, err)
	assert.Equal(t, 4, dr.Days())
	assert.Equal(t, "2025-06-01..2025-06-05", dr.String())

	_, err = New(d("2025-06-05"), d("2025-06-05"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(d("2025-06-05"), d("2025-06-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(dateonly.Date{}, d("2025-06-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestContains(t *testing.T) {
	dr := DateRange{Start: d("2025-06-01"), End: d("2025-06-05")}
	assert.True(t, dr.Contains(d("2025-06-01")))
	assert.True(t, dr.Contains(d("2025-06-03")))
	assert.True(t, dr.Contains(d("2025-06-05")))
	assert.False(t, dr.Contains(d("2025-05-31")))
	assert.False(t, dr.Contains(d("2025-06-06")))
}

func TestOverlaps(t *testing.T) {
	dr := DateRange{Start: d("2025-06-10"), End: d("2025-06-15")}
	tests := []struct {
		name     string
		other    DateRange
		expected bool
	}{
		{"before", DateRange{Start: d("2025-06-01"), End: d("2025-06-09")}, false},
		{"touching start", DateRange{Start: d("2025-06-01"), End: d("2025-06-10")}, true},
		{"inside", DateRange{Start: d("2025-06-11"), End: d("2025-06-12")}, true},
		{"covering", DateRange{Start: d("2025-06-01"), End: d("2025-06-30")}, true},
		{"touching end", DateRange{Start: d("2025-06-15"), End: d("2025-06-20")}, true},
		{"after", DateRange{Start: d("2025-06-16"), End: d("2025-06-20")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dr.Overlaps(tt.other))
			assert.Equal(t, tt.expected, tt.other.Overlaps(dr))
		})
	}
}
