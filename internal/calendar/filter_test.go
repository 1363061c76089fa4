package calendar

import (
	"errors"
	"testing"

	"github.com/go-test/deep"
)

func filterFixture(t *testing.T) []*Event {
	t.Helper()
	events, _ := testNormalizer().NormalizeAll([][]string{
		row("BIT20", "Grieghallen", "01.12.2026", "19:00", "Konsert", ""),
		row("Jazz", "USF Verftet", "17.10.2026", "21:00", "konsert", ""),
		row("Peer Gynt", "Grieghallen", "20.11.2026", "19:30", "Teater", ""),
		row("Quiz", "USF Verftet", "Tirsdag", "20:00", "Quiz", ""),
	})
	return events
}

func visibility(events []*Event) map[string]bool {
	out := make(map[string]bool, len(events))
	for _, ev := range events {
		out[ev.Title] = ev.Visible()
	}
	return out
}

func TestFilterInitialState(t *testing.T) {
	events := filterFixture(t)
	c := NewFilterController(events, testCategories())

	var names []string
	for _, tg := range c.Toggles() {
		names = append(names, tg.Category)
		if tg.Checked() {
			t.Errorf("%s starts checked", tg.Category)
		}
	}
	if diff := deep.Equal(names, []string{"Konsert", "Teater", "Quiz"}); diff != nil {
		t.Error(diff)
	}
	for title, v := range visibility(events) {
		if v {
			t.Errorf("%s visible before any filter is chosen", title)
		}
	}
	if got := c.Flags(); !got.NoEventsVisible || !got.NoFiltersActive {
		t.Errorf("initial flags %+v", got)
	}

	k, _ := c.Lookup("KONSERT")
	if len(k.Events()) != 2 || k.Color != "#e63946" {
		t.Errorf("konsert toggle: %d events, color %q", len(k.Events()), k.Color)
	}
}

func TestToggleOnOffRestores(t *testing.T) {
	events := filterFixture(t)
	c := NewFilterController(events, testCategories())
	before := visibility(events)

	if _, err := c.Toggle("Teater"); err != nil {
		t.Fatal(err)
	}
	mid := visibility(events)
	if !mid["Peer Gynt"] || mid["BIT20"] || mid["Quiz"] {
		t.Errorf("after toggling Teater: %v", mid)
	}

	if _, err := c.Toggle("teater"); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(visibility(events), before); diff != nil {
		t.Error(diff)
	}
}

func TestNoFiltersActive(t *testing.T) {
	c := NewFilterController(filterFixture(t), testCategories())
	if !c.Flags().NoFiltersActive {
		t.Error("0 of 3 checked: NoFiltersActive should be true")
	}

	flags, _ := c.Toggle("Quiz")
	if flags.NoFiltersActive {
		t.Error("1 of 3 checked: NoFiltersActive should be false")
	}

	c.Toggle("Konsert")
	flags, _ = c.Toggle("Teater")
	if flags.NoFiltersActive || flags.NoEventsVisible {
		t.Errorf("3 of 3 checked: %+v", flags)
	}
	for title, v := range visibility(c.events) {
		if !v {
			t.Errorf("%s hidden with every filter on", title)
		}
	}

	c.Toggle("Quiz")
	c.Toggle("Konsert")
	flags, _ = c.Toggle("Teater")
	if !flags.NoFiltersActive {
		t.Error("all unchecked again: NoFiltersActive should be true")
	}
}

func TestNoEventsVisibleIndependentOfFilters(t *testing.T) {
	cats := testCategories()
	// No event uses Quiz here.
	events, _ := testNormalizer().NormalizeAll([][]string{
		row("BIT20", "Grieghallen", "01.12.2026", "19:00", "Konsert", ""),
	})
	c := NewFilterController(events, cats)

	flags, _ := c.Toggle("Quiz")
	if !flags.NoEventsVisible || flags.NoFiltersActive {
		t.Errorf("active filter with no matches: %+v", flags)
	}

	flags, _ = c.Toggle("Quiz")
	if !flags.NoEventsVisible || !flags.NoFiltersActive {
		t.Errorf("no filters: %+v", flags)
	}
}

func TestUncategorizedEventsStayVisible(t *testing.T) {
	events, _ := testNormalizer().NormalizeAll([][]string{
		row("Åpen dag", "Grieghallen", "01.12.2026", "", "", ""),
		row("Gatefest", "Grieghallen", "02.12.2026", "", "Fest", ""),
	})
	c := NewFilterController(events, testCategories())

	v := visibility(events)
	if !v["Åpen dag"] {
		t.Error("event without category has no toggle and stays visible")
	}
	if v["Gatefest"] {
		t.Error("unknown category gets its own toggle, initially off")
	}
	fest, ok := c.Lookup("fest")
	if !ok || fest.Color != "" {
		t.Errorf("toggle for unknown category: %+v, %v", fest, ok)
	}
	if c.Flags().NoEventsVisible {
		t.Error("one event is visible")
	}
}

func TestToggleUnknownCategory(t *testing.T) {
	c := NewFilterController(filterFixture(t), testCategories())
	if _, err := c.Toggle("Sirkus"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("err = %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	c := NewFilterController(filterFixture(t), testCategories())
	var got []Flags
	c.Subscribe(func(f Flags) { got = append(got, f) })

	c.Toggle("Konsert")
	c.Toggle("Konsert")

	want := []Flags{
		{NoEventsVisible: false, NoFiltersActive: false},
		{NoEventsVisible: true, NoFiltersActive: true},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}
