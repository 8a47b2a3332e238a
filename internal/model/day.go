package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDay = errors.New("model: invalid day")

const dayLayout = "2006-01-02"

// Day is a calendar day anchored to a fixed location. The zero value is not
// a usable day.
type Day struct {
	start time.Time
}

// DayOf truncates t to midnight of its calendar date in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Day{start: time.Date(y, m, d, 0, 0, 0, 0, loc)}
}

func ParseDay(s string, loc *time.Location) (Day, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dayLayout, s, loc)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return Day{start: t}, nil
}

func (d Day) IsZero() bool { return d.start.IsZero() }

func (d Day) Start() time.Time { return d.start }

func (d Day) Location() *time.Location { return d.start.Location() }

// Next steps by calendar date so days that span a DST change keep their
// wall-clock midnight.
func (d Day) Next() Day {
	y, m, dd := d.start.Date()
	return Day{start: time.Date(y, m, dd+1, 0, 0, 0, 0, d.start.Location())}
}

func (d Day) Prev() Day {
	y, m, dd := d.start.Date()
	return Day{start: time.Date(y, m, dd-1, 0, 0, 0, 0, d.start.Location())}
}

// AddDays steps n calendar days; n may be negative.
func (d Day) AddDays(n int) Day {
	y, m, dd := d.start.Date()
	return Day{start: time.Date(y, m, dd+n, 0, 0, 0, 0, d.start.Location())}
}

// Window returns the half-open interval [start, start of next day).
func (d Day) Window() (time.Time, time.Time) {
	return d.start, d.Next().start
}

func (d Day) Contains(t time.Time) bool {
	from, to := d.Window()
	return !t.Before(from) && t.Before(to)
}

func (d Day) Equal(other Day) bool {
	return d.start.Equal(other.start)
}

func (d Day) Before(other Day) bool {
	return d.start.Before(other.start)
}

func (d Day) String() string {
	if d.start.IsZero() {
		return ""
	}
	return d.start.Format(dayLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}
