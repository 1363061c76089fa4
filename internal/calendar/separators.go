package calendar

import (
	"time"

	"kulturkal/internal/model"
)

// SeparatorKind distinguishes month and week separators.
type SeparatorKind string

const (
	SeparatorMonth SeparatorKind = "month"
	SeparatorWeek  SeparatorKind = "week"
)

// separatorLead is how far before its boundary a separator sorts, so events
// starting exactly on the boundary come after it.
const separatorLead = time.Millisecond

// Separator is a synthetic list element marking the start of a month or an
// ISO week.
type Separator struct {
	Kind  SeparatorKind
	Label string
	// Week is the ISO-8601 week number for week separators.
	Week int
	// Boundary is the first instant of the period.
	Boundary time.Time
	// Start is Boundary minus one millisecond.
	Start time.Time

	handle       any
	materialized bool
}

func newSeparator(kind SeparatorKind, label string, boundary time.Time) *Separator {
	return &Separator{
		Kind:     kind,
		Label:    label,
		Boundary: boundary,
		Start:    boundary.Add(-separatorLead),
	}
}

func (s *Separator) StartTime() time.Time { return s.Start }

// Materialize returns the display handle for s, calling r at most once.
func (s *Separator) Materialize(r Renderer) any {
	if !s.materialized {
		s.handle = r.RenderSeparator(s)
		s.materialized = true
	}
	return s.handle
}

// SeasonBoundary is how far ahead separators reach: August 1 when now is in
// January through July, otherwise February 1 of the next year.
func SeasonBoundary(now time.Time) time.Time {
	if now.Month() <= time.July {
		return time.Date(now.Year(), time.August, 1, 0, 0, 0, 0, now.Location())
	}
	return time.Date(now.Year()+1, time.February, 1, 0, 0, 0, 0, now.Location())
}

// MonthSeparators returns one separator per month from the current month up
// to the season boundary.
func MonthSeparators(now time.Time) []*Separator {
	boundary := SeasonBoundary(now)
	var out []*Separator
	for m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()); m.Before(boundary); m = m.AddDate(0, 1, 0) {
		out = append(out, newSeparator(SeparatorMonth, model.Capitalize(MonthName(m.Month())), m))
	}
	return out
}

// WeekSeparators returns one separator per ISO week from the Monday of the
// current week up to the season boundary.
func WeekSeparators(now time.Time) []*Separator {
	boundary := SeasonBoundary(now)
	monday := midnight(now).AddDate(0, 0, -WeekdayIndex(now.Weekday()))
	var out []*Separator
	for w := monday; w.Before(boundary); w = w.AddDate(0, 0, 7) {
		_, week := w.ISOWeek()
		sep := newSeparator(SeparatorWeek, weekLabel(week), w)
		sep.Week = week
		out = append(out, sep)
	}
	return out
}
