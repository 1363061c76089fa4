// Package calendar turns sheet rows into events and keeps the ordering and
// category-filter state of one viewing session.
package calendar

import (
	"strconv"
	"strings"
	"time"

	"kulturkal/internal/model"
)

// DefaultHype is used when the hype cell is empty or not a number.
const DefaultHype = 1

// Renderer builds display handles for list entries. Handles are opaque to
// this package.
type Renderer interface {
	RenderEvent(ev *Event) any
	RenderSeparator(sep *Separator) any
}

// Entry is one element of a rendered sequence: an Event or a Separator.
type Entry interface {
	// StartTime is the instant the entry is ordered by.
	StartTime() time.Time
	// Materialize returns the entry's display handle, creating it with r on
	// the first call only.
	Materialize(r Renderer) any
}

// Event is one normalized row of the events sheet.
type Event struct {
	Title       string
	Location    string
	Venue       string
	Category    string
	Description string
	Website     string

	Hype int

	// Start is always set for valid events. The zero time marks an event
	// whose date could not be parsed.
	Start time.Time
	// End is zero when no later end date was given.
	End time.Time

	// StartClock / EndClock are the raw HH:MM cells, kept for display.
	StartClock string
	EndClock   string

	Repeating      bool
	RepeatingLabel string

	Color string
	Place *model.Place

	// Row is the 1-based data row the event came from.
	Row int

	visible      bool
	handle       any
	materialized bool
}

func (e *Event) StartTime() time.Time { return e.Start }

// Materialize returns the display handle for e, calling r at most once.
func (e *Event) Materialize(r Renderer) any {
	if !e.materialized {
		e.handle = r.RenderEvent(e)
		e.materialized = true
	}
	return e.handle
}

// Visible reports whether the event passes the current category filter.
func (e *Event) Visible() bool { return e.visible }

// Dated reports whether the start date was parsed.
func (e *Event) Dated() bool { return !e.Start.IsZero() }

// HasEnd reports whether an end instant was resolved.
func (e *Event) HasEnd() bool { return !e.End.IsZero() }

// Favorite reports whether the event's hype reaches threshold.
func (e *Event) Favorite(threshold int) bool { return e.Hype >= threshold }

// Upcoming reports whether the event belongs in a listing made at now:
// repeating events always do, one-off events only when they start after now.
func (e *Event) Upcoming(now time.Time) bool {
	if !e.Dated() {
		return false
	}
	return e.Repeating || e.Start.After(now)
}

// When formats the start as shown in the list, e.g. "Fredag 16. oktober 20:00–23:00".
func (e *Event) When() string {
	if !e.Dated() {
		return ""
	}
	var b strings.Builder
	b.WriteString(Weekdays[WeekdayIndex(e.Start.Weekday())])
	b.WriteString(" ")
	b.WriteString(strconv.Itoa(e.Start.Day()))
	b.WriteString(". ")
	b.WriteString(MonthName(e.Start.Month()))
	if e.StartClock != "" {
		b.WriteString(" ")
		b.WriteString(e.StartClock)
		if e.EndClock != "" {
			b.WriteString("–")
			b.WriteString(e.EndClock)
		}
	}
	return b.String()
}

// clone copies the event for a new session: visible again, not materialized.
func (e *Event) clone() *Event {
	c := *e
	c.visible = true
	c.handle = nil
	c.materialized = false
	return &c
}
