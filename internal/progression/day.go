package progression

import (
	"fmt"
	"time"
)

// Day is a calendar date with no time-of-day component. Streak comparisons
// only ever look at the date, so the zero hour is fixed to midnight UTC
// regardless of the location the completion happened in.
type Day struct {
	t time.Time
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates a timestamp to the calendar date in its own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

func (d Day) Time() time.Time {
	return d.t
}

func (d Day) Next() Day {
	return Day{t: d.t.AddDate(0, 0, 1)}
}

func (d Day) Equal(o Day) bool {
	return d.t.Equal(o.t)
}

func (d Day) Before(o Day) bool {
	return d.t.Before(o.t)
}

func (d Day) String() string {
	return d.t.Format("2006-01-02")
}

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid day value: %s", s)
	}
	t, err := time.ParseInLocation("2006-01-02", s[1:len(s)-1], time.UTC)
	if err != nil {
		return fmt.Errorf("invalid day value: %w", err)
	}
	*d = Day{t: t}
	return nil
}
