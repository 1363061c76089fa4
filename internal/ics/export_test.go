package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"kulturkal/internal/calendar"
	"kulturkal/internal/model"
)

var oslo = time.FixedZone("CET", 3600)

func testEvents() []*calendar.Event {
	grieg := &model.Place{Name: "Grieghallen", Lat: 60.3885, Lng: 5.3283}
	return []*calendar.Event{
		{
			Title:      "Peer Gynt",
			Location:   "Grieghallen",
			Category:   "Teater",
			Hype:       3,
			Start:      time.Date(2026, 11, 20, 19, 30, 0, 0, oslo),
			End:        time.Date(2026, 11, 20, 22, 0, 0, 0, oslo),
			StartClock: "19:30",
			EndClock:   "22:00",
			Place:      grieg,
			Website:    "https://grieghallen.no",
		},
		{
			Title:          "Quiz",
			Location:       "USF Verftet",
			Category:       "Quiz",
			Hype:           1,
			Start:          time.Date(2026, 10, 20, 20, 0, 0, 0, oslo),
			StartClock:     "20:00",
			EndClock:       "23:00",
			Repeating:      true,
			RepeatingLabel: "Hver tirsdag",
		},
		{Title: "Uten dato"},
	}
}

func parse(t *testing.T, events []*calendar.Event, opts Options) map[string]*ical.VEvent {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, events, opts); err != nil {
		t.Fatal(err)
	}
	cal, err := ical.ParseCalendar(&buf)
	if err != nil {
		t.Fatalf("exported calendar does not parse: %v", err)
	}
	out := map[string]*ical.VEvent{}
	for _, ve := range cal.Events() {
		p := ve.GetProperty(ical.ComponentPropertySummary)
		if p == nil {
			t.Fatal("event without SUMMARY")
		}
		out[p.Value] = ve
	}
	return out
}

func TestBuild(t *testing.T) {
	events := testEvents()
	got := parse(t, events, Options{Stamp: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC), FavoriteHype: 3})

	if len(got) != 2 {
		t.Fatalf("got %d VEVENTs, want 2 (undated skipped)", len(got))
	}

	peer := got["Peer Gynt"]
	start, err := peer.GetStartAt()
	if err != nil || !start.Equal(events[0].Start) {
		t.Errorf("DTSTART = %v, %v", start, err)
	}
	end, err := peer.GetEndAt()
	if err != nil || !end.Equal(events[0].End) {
		t.Errorf("DTEND = %v, %v", end, err)
	}
	if p := peer.GetProperty(ical.ComponentPropertyCategories); p == nil || !strings.Contains(p.Value, "Favoritt") {
		t.Errorf("favourite category missing: %+v", p)
	}
	if p := peer.GetProperty(ical.ComponentPropertyGeo); p == nil || !strings.Contains(p.Value, "60.3885") {
		t.Errorf("GEO = %+v", p)
	}
	if peer.GetProperty(ical.ComponentPropertyRrule) != nil {
		t.Error("one-off event must not repeat")
	}

	quiz := got["Quiz"]
	rr := quiz.GetProperty(ical.ComponentPropertyRrule)
	if rr == nil || !strings.Contains(rr.Value, "FREQ=WEEKLY") || !strings.Contains(rr.Value, "BYDAY=TU") {
		t.Errorf("RRULE = %+v", rr)
	}
	end, err = quiz.GetEndAt()
	if err != nil || !end.Equal(time.Date(2026, 10, 20, 23, 0, 0, 0, oslo)) {
		t.Errorf("end clock on the start day: %v, %v", end, err)
	}
	if p := quiz.GetProperty(ical.ComponentPropertyCategories); p == nil || strings.Contains(p.Value, "Favoritt") {
		t.Errorf("categories = %+v", p)
	}
}

func TestUIDStable(t *testing.T) {
	a := testEvents()
	b := testEvents()

	if UID(a[0]) != UID(b[0]) {
		t.Error("same event must keep its UID")
	}
	if UID(a[0]) == UID(a[1]) {
		t.Error("different events must not share a UID")
	}

	// Next week's resolution of the same repeating event.
	b[1].Start = b[1].Start.AddDate(0, 0, 7)
	if UID(a[1]) != UID(b[1]) {
		t.Error("repeating event UID must not depend on the resolved date")
	}
	if !strings.HasSuffix(UID(a[0]), "@kulturkal") {
		t.Errorf("UID = %q", UID(a[0]))
	}

	got := parse(t, a, Options{})
	if got["Peer Gynt"].Id() != UID(a[0]) {
		t.Errorf("exported UID = %q", got["Peer Gynt"].Id())
	}
}
