// Package calendar classifies calendar dates as operational days for a
// location and resolves the effective reporting day when the dashboard is
// viewed on a day the practice is closed.
package calendar

import (
	"time"
)

// WeekPattern marks which weekdays a location is open. The zero value is a
// fully closed week; build patterns with OpenDays or ClosedOn.
type WeekPattern struct {
	open [7]bool
}

// OpenDays returns a pattern open exactly on the given weekdays.
func OpenDays(days ...time.Weekday) WeekPattern {
	var p WeekPattern
	for _, d := range days {
		p.open[int(d)%7] = true
	}
	return p
}

// ClosedOn returns a pattern open every day except the given weekdays.
// A six-day practice week is ClosedOn(time.Sunday).
func ClosedOn(days ...time.Weekday) WeekPattern {
	var p WeekPattern
	for i := range p.open {
		p.open[i] = true
	}
	for _, d := range days {
		p.open[int(d)%7] = false
	}
	return p
}

// Open reports whether the pattern is open on the given weekday.
func (p WeekPattern) Open(d time.Weekday) bool {
	return p.open[int(d)%7]
}

// HasOpenDay reports whether at least one weekday is open. Patterns that
// fail this are rejected at config load; the calendar itself treats them as
// degenerate and falls back to the default pattern.
func (p WeekPattern) HasOpenDay() bool {
	for _, o := range p.open {
		if o {
			return true
		}
	}
	return false
}

// DefaultPattern is the six-day week used when a location has no explicit
// pattern configured.
var DefaultPattern = ClosedOn(time.Sunday)

// Calendar answers business-day questions per location.
type Calendar struct {
	patterns map[string]WeekPattern
}

// New builds a calendar from per-location week patterns. Locations without
// an entry use DefaultPattern.
func New(patterns map[string]WeekPattern) *Calendar {
	cloned := make(map[string]WeekPattern, len(patterns))
	for loc, p := range patterns {
		cloned[loc] = p
	}
	return &Calendar{patterns: cloned}
}

func (c *Calendar) pattern(location string) WeekPattern {
	if p, ok := c.patterns[location]; ok && p.HasOpenDay() {
		return p
	}
	return DefaultPattern
}

// IsBusinessDay reports whether date is an operational day for the location.
// Pure function of the date's weekday and the location's configured pattern.
func (c *Calendar) IsBusinessDay(date time.Time, location string) bool {
	return c.pattern(location).Open(date.Weekday())
}

// LatestBusinessDay walks backward from asOf until it lands on an
// operational day. If asOf is already operational it is returned unchanged.
// The weekly cycle bounds the walk at seven steps.
func (c *Calendar) LatestBusinessDay(asOf time.Time, location string) time.Time {
	p := c.pattern(location)
	d := asOf
	for i := 0; i < 7; i++ {
		if p.Open(d.Weekday()) {
			return d
		}
		d = d.AddDate(0, 0, -1)
	}
	return asOf
}
