package calendar

import (
	"testing"
	"time"

	"github.com/go-test/deep"
)

func orderFixture(t *testing.T) []*Event {
	t.Helper()
	n := testNormalizer()
	events, _ := n.NormalizeAll([][]string{
		row("Nyttårskonsert", "Grieghallen", "01.01.2027", "19:00", "Konsert", "3"),
		row("Fjorårets", "Grieghallen", "01.10.2026", "19:00", "Konsert", "5"),
		row("Quiz", "USF Verftet", "Tirsdag", "20:00", "Quiz", ""),
		row("Peer Gynt", "Grieghallen", "20.11.2026", "19:30", "Teater", "3"),
		row("Uten dato", "Grieghallen", "en gang", "", "Konsert", "9"),
		row("Jazz", "USF Verftet", "17.10.2026", "21:00", "Konsert", "2"),
		row("Tidligere i dag", "USF Verftet", "16.10.2026", "10:00", "Konsert", "4"),
	})
	return events
}

func TestUpcoming(t *testing.T) {
	got := Upcoming(orderFixture(t), testNow)
	var names []string
	for _, ev := range got {
		names = append(names, ev.Title)
	}
	want := []string{"Nyttårskonsert", "Quiz", "Peer Gynt", "Jazz"}
	if diff := deep.Equal(names, want); diff != nil {
		t.Error(diff)
	}
}

func TestChronologicalSequence(t *testing.T) {
	o := NewOrderer(orderFixture(t), fixedClock(testNow))
	seq := o.Sequence()

	for i := 1; i < len(seq); i++ {
		if seq[i].StartTime().Before(seq[i-1].StartTime()) {
			t.Fatalf("sequence not ascending at %d: %v", i, titles(seq))
		}
	}
	want := []string{"Jazz", "Quiz", "Peer Gynt", "Nyttårskonsert"}
	if diff := deep.Equal(eventTitles(seq), want); diff != nil {
		t.Error(diff)
	}

	// Month and week separators are interleaved.
	got := titles(seq)
	if got[0] != "#Oktober" || got[1] != "#Uke 42" {
		t.Errorf("sequence should open with the current month and week: %v", got[:4])
	}
}

func TestChronologicalIdempotent(t *testing.T) {
	o := NewOrderer(orderFixture(t), fixedClock(testNow))
	seq := o.Sequence()
	before := titles(seq)

	again := make([]Entry, len(seq))
	copy(again, seq)
	SortChronological(again)

	if diff := deep.Equal(titles(again), before); diff != nil {
		t.Error(diff)
	}
}

func TestPopularityOrder(t *testing.T) {
	o := NewOrderer(orderFixture(t), fixedClock(testNow))
	if o.Toggle() != OrderPopularity {
		t.Fatal("toggle should switch to popularity")
	}
	seq := o.Sequence()
	for _, e := range seq {
		if _, ok := e.(*Separator); ok {
			t.Fatal("popularity order has no separators")
		}
	}
	// Ties (hype 3) keep input order.
	want := []string{"Nyttårskonsert", "Peer Gynt", "Jazz", "Quiz"}
	if diff := deep.Equal(eventTitles(seq), want); diff != nil {
		t.Error(diff)
	}
}

func TestModeRoundTrip(t *testing.T) {
	o := NewOrderer(orderFixture(t), fixedClock(testNow))
	first := o.Sequence()

	o.Toggle()
	_ = o.Sequence()
	if o.Toggle() != OrderChronological {
		t.Fatal("second toggle should return to chronological")
	}
	back := o.Sequence()

	if diff := deep.Equal(eventTitles(back), eventTitles(first)); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(titles(back), titles(first)); diff != nil {
		t.Errorf("separators should be regenerated identically for the same clock: %v", diff)
	}
	for i := range back {
		if ev, ok := back[i].(*Event); ok && ev != first[i].(*Event) {
			t.Errorf("event %q was recreated", ev.Title)
		}
	}
}

func TestOrdererEvents(t *testing.T) {
	o := NewOrderer(orderFixture(t), fixedClock(testNow))
	var got []string
	for _, ev := range o.Events() {
		got = append(got, ev.Title)
	}
	if diff := deep.Equal(got, []string{"Jazz", "Quiz", "Peer Gynt", "Nyttårskonsert"}); diff != nil {
		t.Error(diff)
	}
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"": OrderChronological, "chrono": OrderChronological, "hype": OrderPopularity} {
		got, err := ParseOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseOrder("random"); err == nil {
		t.Error("expected error")
	}
}

func TestEndToEndFutureAndWeekday(t *testing.T) {
	n := testNormalizer()
	events, _ := n.NormalizeAll([][]string{
		row("A", "", "01.01.2999", "", "", ""),
		row("B", "", "Mandag", "", "", ""),
	})
	o := NewOrderer(events, fixedClock(testNow))
	seq := o.Sequence()

	got := eventTitles(seq)
	if diff := deep.Equal(got, []string{"B", "A"}); diff != nil {
		t.Fatal(diff)
	}
	var b *Event
	for _, e := range seq {
		if ev, ok := e.(*Event); ok && ev.Title == "B" {
			b = ev
		}
	}
	today := midnight(testNow)
	if b.Start.Before(today) || !b.Start.Before(today.AddDate(0, 0, 7)) {
		t.Errorf("B starts %v, not within 7 days of %v", b.Start, today)
	}
	if b.Start.Weekday() != time.Monday {
		t.Errorf("B on %s", b.Start.Weekday())
	}
}

type countingRenderer struct{ events, seps int }

func (c *countingRenderer) RenderEvent(ev *Event) any {
	c.events++
	return "event:" + ev.Title
}

func (c *countingRenderer) RenderSeparator(s *Separator) any {
	c.seps++
	return "sep:" + s.Label
}

func TestMaterializeIdempotent(t *testing.T) {
	r := &countingRenderer{}
	ev := &Event{Title: "X"}
	sep := newSeparator(SeparatorMonth, "Mai", testNow)

	for i := 0; i < 3; i++ {
		if h := ev.Materialize(r); h != "event:X" {
			t.Fatalf("handle %v", h)
		}
		if h := sep.Materialize(r); h != "sep:Mai" {
			t.Fatalf("handle %v", h)
		}
	}
	if r.events != 1 || r.seps != 1 {
		t.Errorf("renderer called %d/%d times, want 1/1", r.events, r.seps)
	}
}
