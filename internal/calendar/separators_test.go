package calendar

import (
	"testing"
	"time"

	"github.com/go-test/deep"
)

func TestSeasonBoundary(t *testing.T) {
	for _, tt := range []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 1, 10, 0, 0, 0, 0, testLoc), time.Date(2026, 8, 1, 0, 0, 0, 0, testLoc)},
		{time.Date(2026, 7, 31, 23, 0, 0, 0, testLoc), time.Date(2026, 8, 1, 0, 0, 0, 0, testLoc)},
		{time.Date(2026, 8, 1, 0, 0, 0, 0, testLoc), time.Date(2027, 2, 1, 0, 0, 0, 0, testLoc)},
		{testNow, time.Date(2027, 2, 1, 0, 0, 0, 0, testLoc)},
		{time.Date(2026, 12, 31, 0, 0, 0, 0, testLoc), time.Date(2027, 2, 1, 0, 0, 0, 0, testLoc)},
	} {
		if got := SeasonBoundary(tt.now); !got.Equal(tt.want) {
			t.Errorf("SeasonBoundary(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestMonthSeparators(t *testing.T) {
	seps := MonthSeparators(testNow)

	var labels []string
	for _, s := range seps {
		labels = append(labels, s.Label)
		if s.Kind != SeparatorMonth {
			t.Errorf("%s: kind %s", s.Label, s.Kind)
		}
		if s.Boundary.Day() != 1 || s.Boundary.Hour() != 0 {
			t.Errorf("%s: boundary %v is not a month start", s.Label, s.Boundary)
		}
		if got := s.Boundary.Sub(s.Start); got != time.Millisecond {
			t.Errorf("%s: start is %v before boundary", s.Label, got)
		}
	}
	if diff := deep.Equal(labels, []string{"Oktober", "November", "Desember", "Januar"}); diff != nil {
		t.Error(diff)
	}
}

func TestMonthSeparatorsSpring(t *testing.T) {
	seps := MonthSeparators(time.Date(2027, 3, 20, 10, 0, 0, 0, testLoc))
	if len(seps) != 5 || seps[0].Label != "Mars" || seps[4].Label != "Juli" {
		t.Errorf("unexpected spring separators: %v", seps)
	}
}

func TestWeekSeparators(t *testing.T) {
	seps := WeekSeparators(testNow)
	if len(seps) != 16 {
		t.Fatalf("got %d week separators, want 16", len(seps))
	}

	first := seps[0]
	if want := time.Date(2026, 10, 12, 0, 0, 0, 0, testLoc); !first.Boundary.Equal(want) {
		t.Errorf("first boundary %v, want Monday %v", first.Boundary, want)
	}
	if first.Week != 42 || first.Label != "Uke 42" {
		t.Errorf("first week = %d %q", first.Week, first.Label)
	}

	boundary := SeasonBoundary(testNow)
	weeks := map[int]bool{}
	for _, s := range seps {
		if s.Boundary.Weekday() != time.Monday {
			t.Errorf("%s starts on %s", s.Label, s.Boundary.Weekday())
		}
		if !s.Boundary.Before(boundary) {
			t.Errorf("%s is past the season boundary", s.Label)
		}
		weeks[s.Week] = true
	}
	// 2026 has 53 ISO weeks; the year rolls over to week 1 on 4 January.
	if !weeks[53] || !weeks[1] {
		t.Errorf("expected weeks 53 and 1 in %v", weeks)
	}
}

func TestSeparatorSortsBeforeBoundaryEvent(t *testing.T) {
	sep := MonthSeparators(testNow)[1] // November
	ev := &Event{Title: "Midnatt", Start: sep.Boundary, Hype: 1, visible: true}
	early := &Event{Title: "Før", Start: sep.Boundary.Add(-time.Hour), Hype: 1, visible: true}

	got := titles(Chronological([]*Event{ev, early}, []*Separator{sep}))
	if diff := deep.Equal(got, []string{"Før", "#November", "Midnatt"}); diff != nil {
		t.Error(diff)
	}
}
