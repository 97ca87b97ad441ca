package workdays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDay_StripsClockAndKeepsLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2025, 1, 10, 23, 30, 0, 0, loc)

	assert.Equal(t, date(2025, 1, 10), Day(late))
}

func TestNextWorkday(t *testing.T) {
	// 2025-01-10 is a Friday
	assert.Equal(t, date(2025, 1, 10), NextWorkday(date(2025, 1, 10)))
	assert.Equal(t, date(2025, 1, 13), NextWorkday(date(2025, 1, 11)), "saturday rolls to monday")
	assert.Equal(t, date(2025, 1, 13), NextWorkday(date(2025, 1, 12)), "sunday rolls to monday")
	assert.Equal(t, date(2025, 1, 13), NextWorkday(time.Date(2025, 1, 13, 17, 0, 0, 0, time.UTC)))
}

func TestCountBetween(t *testing.T) {
	cases := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"single weekday", date(2025, 1, 6), date(2025, 1, 6), 1},
		{"single saturday", date(2025, 1, 11), date(2025, 1, 11), 0},
		{"mon to fri", date(2025, 1, 6), date(2025, 1, 10), 5},
		{"mon to sun", date(2025, 1, 6), date(2025, 1, 12), 5},
		{"two weeks", date(2025, 1, 6), date(2025, 1, 19), 10},
		{"fri to tue", date(2025, 1, 10), date(2025, 1, 14), 3},
		{"reversed", date(2025, 1, 10), date(2025, 1, 6), 0},
		{"long range", date(2025, 1, 1), date(2025, 12, 31), 261},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CountBetween(tc.from, tc.to))
		})
	}
}

func TestCountInWindow_HalfOpen(t *testing.T) {
	assert.Equal(t, 10, CountInWindow(date(2025, 1, 6), date(2025, 1, 20)))
	assert.Equal(t, 4, CountInWindow(date(2025, 1, 6), date(2025, 1, 10)), "end day excluded")
	assert.Equal(t, 0, CountInWindow(date(2025, 1, 6), date(2025, 1, 6)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 2, DaysBetween(date(2025, 1, 10), date(2025, 1, 12)))
	assert.Equal(t, -3, DaysBetween(date(2025, 1, 10), date(2025, 1, 7)))
	assert.Equal(t, 0, DaysBetween(date(2025, 1, 10), time.Date(2025, 1, 10, 22, 0, 0, 0, time.UTC)))
}

func TestInWindow(t *testing.T) {
	start, end := date(2025, 1, 6), date(2025, 1, 10)
	assert.True(t, InWindow(start, start, end))
	assert.True(t, InWindow(time.Date(2025, 1, 9, 18, 0, 0, 0, time.UTC), start, end))
	assert.False(t, InWindow(end, start, end))
	assert.False(t, InWindow(date(2025, 1, 5), start, end))
}
