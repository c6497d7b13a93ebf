package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatpack/chatpack/errs"
)

func day(y int, m time.Month, d int) Day {
	return Day{Year: y, Month: m, Day: d}
}

func TestDayOf(t *testing.T) {
	// 23:30 in UTC+5 is already the next day locally, but bucketing is UTC.
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2023, time.February, 2, 3, 30, 0, 0, loc)
	require.Equal(t, day(2023, time.February, 1), DayOf(ts))
}

func TestDayKeys(t *testing.T) {
	d := day(2023, time.February, 1)
	require.Equal(t, "2023-02-01", d.Key())
	require.Equal(t, "2023-02", d.MonthKey())

	parsed, err := DayFromKey("2023-02-01")
	require.NoError(t, err)
	require.Equal(t, d, parsed)

	_, err = DayFromKey("not-a-day")
	require.Error(t, err)
}

func TestDayNext(t *testing.T) {
	require.Equal(t, day(2023, time.February, 1), day(2023, time.January, 31).Next())
	require.Equal(t, day(2024, time.February, 29), day(2024, time.February, 28).Next())
	require.Equal(t, day(2024, time.January, 1), day(2023, time.December, 31).Next())
}

func TestDayOrdering(t *testing.T) {
	a := day(2023, time.January, 31)
	b := day(2023, time.February, 1)

	require.True(t, a.Before(b))
	require.False(t, b.Before(a))
	require.True(t, b.After(a))
	require.False(t, a.Before(a))
}

func TestClampDay(t *testing.T) {
	min := day(2023, time.January, 30)
	max := day(2023, time.February, 2)

	require.Equal(t, min, ClampDay(day(2022, time.December, 25), min, max))
	require.Equal(t, max, ClampDay(day(2023, time.March, 1), min, max))
	require.Equal(t, day(2023, time.February, 1), ClampDay(day(2023, time.February, 1), min, max))
}

func TestDayRange(t *testing.T) {
	days, months, err := DayRange(day(2023, time.January, 30), day(2023, time.February, 2))
	require.NoError(t, err)

	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.Key()
	}
	require.Equal(t, []string{"2023-01-30", "2023-01-31", "2023-02-01", "2023-02-02"}, keys)
	require.Equal(t, []string{"2023-01", "2023-02"}, months)
}

func TestDayRange_SingleDay(t *testing.T) {
	d := day(2023, time.June, 15)
	days, months, err := DayRange(d, d)
	require.NoError(t, err)
	require.Equal(t, []Day{d}, days)
	require.Equal(t, []string{"2023-06"}, months)
}

func TestDayRange_Invalid(t *testing.T) {
	_, _, err := DayRange(day(2023, time.February, 2), day(2023, time.January, 30))
	require.ErrorIs(t, err, errs.ErrInvalidDayRange)
}
