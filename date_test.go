package amortize

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		from civil.Date
		n    int
		want civil.Date
	}{
		{"same day next month", date(2025, 4, 20), 1, date(2025, 5, 20)},
		{"clamps to february", date(2025, 1, 31), 1, date(2025, 2, 28)},
		{"clamps to leap february", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"clamps to 30 day month", date(2025, 3, 31), 1, date(2025, 4, 30)},
		{"no drift from anchor", date(2025, 1, 31), 2, date(2025, 3, 31)},
		{"crosses year", date(2025, 11, 15), 3, date(2026, 2, 15)},
		{"whole term", date(2025, 4, 20), 360, date(2055, 4, 20)},
		{"zero", date(2025, 4, 20), 0, date(2025, 4, 20)},
		{"backwards", date(2025, 1, 15), -1, date(2024, 12, 15)},
		{"backwards across years", date(2025, 3, 31), -13, date(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.from, tt.n))
		})
	}
}

func TestParseDateKey(t *testing.T) {
	d, err := ParseDateKey("20250420")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 4, 20), d)
	assert.Equal(t, "20250420", DateKey(d))

	for _, bad := range []string{"", "2025042", "202504200", "2025-4-20", "2025042a", "20250230", "20251301", " 2025042"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseDateKey(bad)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDate))
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestElapsedMonths(t *testing.T) {
	start := date(2025, 4, 20)

	past, left := ElapsedMonths(360, start, date(2025, 7, 19))
	assert.Equal(t, 2, past)
	assert.Equal(t, 358, left)

	past, left = ElapsedMonths(360, start, date(2025, 7, 20))
	assert.Equal(t, 3, past)
	assert.Equal(t, 357, left)

	past, left = ElapsedMonths(360, start, date(2025, 1, 1))
	assert.Equal(t, 0, past)
	assert.Equal(t, 360, left)

	past, left = ElapsedMonths(12, start, date(2030, 1, 1))
	assert.Equal(t, 12, past)
	assert.Equal(t, 0, left)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestContractElapsedUsesClock(t *testing.T) {
	require.NoError(t, Start(Config{Clock: fixedClock{time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)}}))
	defer Start(Config{})

	c, err := NewContract(dec("0.036"), dec("1500000"), 360, date(2025, 4, 20))
	require.NoError(t, err)
	past, left := c.Elapsed()
	assert.Equal(t, 12, past)
	assert.Equal(t, 348, left)
	assert.Equal(t, date(2026, 4, 20), Today())
}
