package dates

import (
	"iter"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// KeyLayout is the canonical day key format (YYYYMMDD).
	KeyLayout = "20060102"
	// ConfigLayout is the day format used in the competitions file (DD/MM/YYYY).
	ConfigLayout = "02/01/2006"
)

// Key identifies one calendar day, serialized as YYYYMMDD.
type Key string

// KeyOf returns the key of the calendar day t falls on, in t's location.
func KeyOf(t time.Time) Key {
	return Key(t.Format(KeyLayout))
}

// ParseKey validates s as an 8-digit YYYYMMDD day.
func ParseKey(s string) (Key, error) {
	if len(s) != len(KeyLayout) {
		return "", errors.Newf("invalid day key %q", s)
	}
	if _, err := time.Parse(KeyLayout, s); err != nil {
		return "", errors.Wrapf(err, "invalid day key %q", s)
	}
	return Key(s), nil
}

// Time returns midnight UTC of the day.
func (k Key) Time() time.Time {
	t, _ := time.Parse(KeyLayout, string(k))
	return t
}

// Year returns the four-digit year prefix, used for partitioning directories.
func (k Key) Year() string {
	if len(k) < 4 {
		return ""
	}
	return string(k[:4])
}

// Int returns the key as an integer, 0 when malformed.
func (k Key) Int() int {
	n, err := strconv.Atoi(string(k))
	if err != nil {
		return 0
	}
	return n
}

func (k Key) String() string {
	return string(k)
}

// ParseConfigDate parses a DD/MM/YYYY day as midnight UTC.
func ParseConfigDate(s string) (time.Time, error) {
	t, err := time.Parse(ConfigLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q (want DD/MM/YYYY)", s)
	}
	return t, nil
}

// Day truncates t to its calendar day, expressed as midnight UTC.
// The wall-clock fields of t are kept, so 23:30 local stays on the local day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Range is an inclusive span of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a range from two instants, truncated to their days.
func NewRange(start, end time.Time) Range {
	return Range{Start: Day(start), End: Day(end)}
}

// Empty reports whether the range covers no day at all.
func (r Range) Empty() bool {
	return r.End.Before(r.Start)
}

// Len returns the number of days in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether the day k falls inside the range.
func (r Range) Contains(k Key) bool {
	t := k.Time()
	if t.IsZero() {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// Clamp caps the end of the range at the day of now. Results of days that
// have not happened yet cannot exist.
func (r Range) Clamp(now time.Time) Range {
	today := Day(now)
	if today.Before(r.End) {
		r.End = today
	}
	return r
}

// Days yields every day of the range in ascending order. The sequence can be
// ranged over any number of times.
func (r Range) Days() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
			if !yield(KeyOf(d)) {
				return
			}
		}
	}
}

// Keys collects Days into a slice.
func (r Range) Keys() []Key {
	keys := make([]Key, 0, r.Len())
	for k := range r.Days() {
		keys = append(keys, k)
	}
	return keys
}

// Years lists every year the range touches, ascending.
func (r Range) Years() []int {
	if r.Empty() {
		return nil
	}
	years := make([]int, 0, r.End.Year()-r.Start.Year()+1)
	for y := r.Start.Year(); y <= r.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// Resolve merges spans into the smallest range covering all of them: the
// earliest start and the latest end. ok is false when spans is empty, so
// callers never see an inverted default interval.
func Resolve(spans ...Range) (r Range, ok bool) {
	if len(spans) == 0 {
		return Range{}, false
	}
	r = spans[0]
	for _, s := range spans[1:] {
		if s.Start.Before(r.Start) {
			r.Start = s.Start
		}
		if s.End.After(r.End) {
			r.End = s.End
		}
	}
	return r, true
}
