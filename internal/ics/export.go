// Package ics exports the event listing as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"kulturkal/internal/calendar"
	appLog "kulturkal/internal/log"
)

const productID = "-//kulturkal//Kulturkalender//NB"

// uidNamespace seeds the name-based UIDs so the same event keeps its UID
// across reloads and restarts.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:kulturkal:event"))

// Options tune the exported calendar.
type Options struct {
	// Stamp is written as DTSTAMP; zero means time.Now.
	Stamp time.Time
	// FavoriteHype marks events at or above this hype with a "Favoritt"
	// category. Zero disables it.
	FavoriteHype int
}

// Build converts events into a PUBLISH calendar. Undated events are
// skipped. Repeating events get a weekly RRULE on their weekday.
func Build(events []*calendar.Event, opts Options) *ical.Calendar {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	skipped := 0
	for _, e := range events {
		if !e.Dated() {
			skipped++
			continue
		}
		ve := cal.AddEvent(UID(e))
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(e.Start)
		if end, ok := endOf(e); ok {
			ve.SetEndAt(end)
		}
		ve.SetSummary(e.Title)
		if loc := location(e); loc != "" {
			ve.SetLocation(loc)
		}
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Website != "" {
			ve.SetURL(e.Website)
		}
		var cats []string
		if e.Category != "" {
			cats = append(cats, e.Category)
		}
		if opts.FavoriteHype > 0 && e.Favorite(opts.FavoriteHype) {
			cats = append(cats, "Favoritt")
		}
		if len(cats) > 0 {
			ve.SetProperty(ical.ComponentPropertyCategories, strings.Join(cats, ","))
		}
		if e.Place != nil {
			ve.SetProperty(ical.ComponentPropertyGeo,
				strconv.FormatFloat(e.Place.Lat, 'f', -1, 64)+";"+strconv.FormatFloat(e.Place.Lng, 'f', -1, 64))
		}
		if e.Repeating {
			ve.SetProperty(ical.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+calendar.ICSDay(e.Start.Weekday()))
		}
	}
	if skipped > 0 {
		appLog.Debug("ics export skipped undated events", "count", skipped)
	}
	return cal
}

// Write serializes events as an iCalendar document.
func Write(w io.Writer, events []*calendar.Event, opts Options) error {
	if _, err := io.WriteString(w, Build(events, opts).Serialize()); err != nil {
		return fmt.Errorf("ics: write: %w", err)
	}
	return nil
}

// UID derives a stable identifier from what makes an event the same event.
// A repeating event is keyed by its weekday rather than by the date it
// currently resolves to.
func UID(e *calendar.Event) string {
	when := e.Start.Format(time.RFC3339)
	if e.Repeating {
		when = "weekly:" + calendar.ICSDay(e.Start.Weekday()) + e.Start.Format("15:04")
	}
	key := strings.Join([]string{e.Title, e.Location, e.Venue, when}, "\x1f")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@kulturkal"
}

// endOf returns the resolved end, or the end clock on the start day when
// only an end time was given.
func endOf(e *calendar.Event) (time.Time, bool) {
	if e.HasEnd() {
		return e.End, true
	}
	if e.EndClock == "" {
		return time.Time{}, false
	}
	c, err := calendar.ParseClock(e.EndClock)
	if err != nil {
		return time.Time{}, false
	}
	end := time.Date(e.Start.Year(), e.Start.Month(), e.Start.Day(), c.Hour, c.Minute, 0, 0, e.Start.Location())
	if !end.After(e.Start) {
		return time.Time{}, false
	}
	return end, true
}

func location(e *calendar.Event) string {
	switch {
	case e.Location != "" && e.Venue != "":
		return e.Location + ", " + e.Venue
	case e.Place != nil && e.Place.Address != "":
		return e.Location + ", " + e.Place.Address
	default:
		return e.Location
	}
}
