package pipeline

import (
	"fmt"
	"time"

	"github.com/chatpack/chatpack/errs"
)

// Day is a UTC calendar day. It is the time granularity of the whole
// pipeline: messages bucket into days, reports bound their time range with
// days, and filters select day ranges.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{Year: y, Month: m, Day: d}
}

// DayFromKey parses a "YYYY-MM-DD" day key.
func DayFromKey(key string) (Day, error) {
	t, err := time.Parse(time.DateOnly, key)
	if err != nil {
		return Day{}, fmt.Errorf("parse day key: %w", err)
	}

	return DayOf(t), nil
}

// Key returns the day in "YYYY-MM-DD" form.
func (d Day) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MonthKey returns the day's month in "YYYY-MM" form.
func (d Day) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar day.
func (d Day) Next() Day {
	return DayOf(d.Time().AddDate(0, 0, 1))
}

// Before reports whether d is earlier than other.
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}

	return d.Day < other.Day
}

// After reports whether d is later than other.
func (d Day) After(other Day) bool {
	return other.Before(d)
}

// ClampDay limits d to the inclusive range [min, max].
func ClampDay(d, min, max Day) Day {
	if d.Before(min) {
		return min
	}
	if d.After(max) {
		return max
	}

	return d
}

// DayRange builds the ordered day keys covering [min, max] inclusive, and
// the ordered month keys those days fall into. A month key is appended only
// when it differs from the previous one, so months come out contiguous and
// non-decreasing.
//
// Returns errs.ErrInvalidDayRange when max is before min.
func DayRange(min, max Day) (days []Day, months []string, err error) {
	if max.Before(min) {
		return nil, nil, errs.ErrInvalidDayRange
	}

	for d := min; !d.After(max); d = d.Next() {
		days = append(days, d)
		if mk := d.MonthKey(); len(months) == 0 || months[len(months)-1] != mk {
			months = append(months, mk)
		}
	}

	return days, months, nil
}
