// Package daterange parses the --dates filter used to select activities.
package daterange

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidRange is returned for a range that cannot be parsed or is reversed
var ErrInvalidRange = errors.New("invalid date range")

// Range is an inclusive span of civil dates
type Range struct {
	From time.Time // first day, at midnight
	To   time.Time // last day, at midnight
}

// Contains reports whether t falls on a day inside the range
func (r Range) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.From.Location())
	return !day.Before(r.From) && !day.After(r.To)
}

func (r Range) String() string {
	return r.From.Format("20060102") + "-" + r.To.Format("20060102")
}

// Set is a sorted list of ranges
type Set []Range

// Parse reads a comma separated list of YYYYMMDD-YYYYMMDD, YYYYMMDD, YYYYMM
// or YYYY terms. Dates are interpreted in loc.
func Parse(s string, loc *time.Location) (Set, error) {
	var set Set
	for _, term := range strings.Split(s, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		r, err := parseTerm(term, loc)
		if err != nil {
			return nil, err
		}
		set = append(set, r)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidRange, s)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].From.Before(set[j].From) })
	return set, nil
}

func parseTerm(term string, loc *time.Location) (Range, error) {
	if from, to, ok := strings.Cut(term, "-"); ok {
		start, err := parseDay(from, loc)
		if err != nil {
			return Range{}, err
		}
		end, err := parseDay(to, loc)
		if err != nil {
			return Range{}, err
		}
		if end.Before(start) {
			return Range{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidRange, term)
		}
		return Range{From: start, To: end}, nil
	}

	switch len(term) {
	case 4:
		t, err := time.ParseInLocation("2006", term, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, term, err)
		}
		return Range{From: t, To: t.AddDate(1, 0, -1)}, nil
	case 6:
		t, err := time.ParseInLocation("200601", term, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, term, err)
		}
		return Range{From: t, To: t.AddDate(0, 1, -1)}, nil
	case 8:
		t, err := parseDay(term, loc)
		if err != nil {
			return Range{}, err
		}
		return Range{From: t, To: t}, nil
	}
	return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, term)
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("20060102", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	return t, nil
}

// Contains reports whether any range holds t. An empty set holds everything.
func (s Set) Contains(t time.Time) bool {
	if len(s) == 0 {
		return true
	}
	for _, r := range s {
		if r.Contains(t) {
			return true
		}
	}
	return false
}

// Bounds returns the API query window covering every range: after is the
// first day's midnight and before is the midnight following the last day.
func (s Set) Bounds() (after, before time.Time) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}
	}
	after = s[0].From
	last := s[0].To
	for _, r := range s[1:] {
		if r.To.After(last) {
			last = r.To
		}
	}
	return after, last.AddDate(0, 0, 1)
}

// Span returns the first and last day covered, for filling a day grid
func (s Set) Span() (from, to time.Time) {
	after, before := s.Bounds()
	if after.IsZero() {
		return after, before
	}
	return after, before.AddDate(0, 0, -1)
}
