// Package dateonly provides a calendar date without a time-of-day component.
// All booking comparisons are done on these values so that timezone drift and
// partial-day truncation cannot leak into availability or pricing decisions.
package dateonly

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Layout is the wire format of a Date.
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("dateonly: invalid date")

// Date is a year/month/day triple. The zero value is not a valid calendar day
// and reports IsZero.
type Date struct {
	d civil.Date
}

// New builds a Date, normalizing overflowing days and months the same way
// time.Date does.
func New(year int, month time.Month, day int) Date {
	return Date{d: civil.DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))}
}

// Parse reads a date from an ISO-8601 string. Only the first 10 characters
// are considered, so date-time strings such as "2025-06-01T15:04:05Z" are
// truncated to their date portion.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(Layout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d, err := civil.ParseDate(s[:len(Layout)])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if !d.IsValid() {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{d: d}, nil
}

// MustParse is Parse that panics on error; meant for fixtures and tests.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the calendar date of t as observed in loc. A nil loc keeps
// t's own location.
func FromTime(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	return Date{d: civil.DateOf(t)}
}

// Today is the current date in the presentation timezone.
func Today(now time.Time, loc *time.Location) Date {
	return FromTime(now, loc)
}

func (d Date) Year() int          { return d.d.Year }
func (d Date) Month() time.Month  { return d.d.Month }
func (d Date) Day() int           { return d.d.Day }
func (d Date) IsZero() bool       { return d.d.IsZero() }
func (d Date) Before(o Date) bool { return d.d.Before(o.d) }
func (d Date) After(o Date) bool  { return d.d.After(o.d) }
func (d Date) Equal(o Date) bool  { return d.d == o.d }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Before(o):
		return -1
	case d.After(o):
		return 1
	default:
		return 0
	}
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{d: d.d.AddDays(n)}
}

// DaysSince returns the signed number of days from o to d.
func (d Date) DaysSince(o Date) int {
	return d.d.DaysSince(o.d)
}

// Time returns midnight of d in loc (UTC when loc is nil).
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return d.d.In(loc)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.d.String()
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
