package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Order selects how a sequence is sorted.
type Order int

const (
	// OrderChronological interleaves events with month and week separators.
	OrderChronological Order = iota
	// OrderPopularity lists events only, most hyped first.
	OrderPopularity
)

func (o Order) String() string {
	switch o {
	case OrderPopularity:
		return "hype"
	default:
		return "chrono"
	}
}

// ParseOrder accepts "chrono" / "hype" (and "" for chronological).
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "chrono", "chronological":
		return OrderChronological, nil
	case "hype", "popularity":
		return OrderPopularity, nil
	default:
		return OrderChronological, fmt.Errorf("unknown order %q", s)
	}
}

// Upcoming keeps dated events that are repeating or start after now, in
// input order.
func Upcoming(events []*Event, now time.Time) []*Event {
	out := make([]*Event, 0, len(events))
	for _, ev := range events {
		if ev.Upcoming(now) {
			out = append(out, ev)
		}
	}
	return out
}

// SortChronological sorts entries ascending by StartTime, keeping input order
// for ties.
func SortChronological(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartTime().Before(entries[j].StartTime())
	})
}

// Chronological merges events with the given separators. The input order for
// ties is: separators as given, then events.
func Chronological(events []*Event, seps ...[]*Separator) []Entry {
	n := len(events)
	for _, s := range seps {
		n += len(s)
	}
	out := make([]Entry, 0, n)
	for _, s := range seps {
		for _, sep := range s {
			out = append(out, sep)
		}
	}
	for _, ev := range events {
		out = append(out, ev)
	}
	SortChronological(out)
	return out
}

// ByPopularity returns events sorted by descending hype, keeping input order
// for ties.
func ByPopularity(events []*Event) []*Event {
	out := make([]*Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hype > out[j].Hype
	})
	return out
}

// Orderer produces the rendered sequence for a session in the selected order.
type Orderer struct {
	events       []*Event
	clock        func() time.Time
	sessionStart time.Time
	mode         Order
}

// NewOrderer captures clock() as the session start used by the upcoming filter.
func NewOrderer(events []*Event, clock func() time.Time) *Orderer {
	if clock == nil {
		clock = time.Now
	}
	return &Orderer{
		events:       events,
		clock:        clock,
		sessionStart: clock(),
		mode:         OrderChronological,
	}
}

func (o *Orderer) Mode() Order { return o.mode }

func (o *Orderer) SetMode(m Order) { o.mode = m }

// Toggle switches between chronological and popularity order and returns the
// new mode.
func (o *Orderer) Toggle() Order {
	if o.mode == OrderChronological {
		o.mode = OrderPopularity
	} else {
		o.mode = OrderChronological
	}
	return o.mode
}

// Events returns the upcoming events in the current mode, without separators.
func (o *Orderer) Events() []*Event {
	up := Upcoming(o.events, o.sessionStart)
	if o.mode == OrderPopularity {
		return ByPopularity(up)
	}
	out := make([]*Event, 0, len(up))
	for _, e := range Chronological(up) {
		out = append(out, e.(*Event))
	}
	return out
}

// Sequence returns the entries to render. Separators are regenerated from
// the clock on every call.
func (o *Orderer) Sequence() []Entry {
	up := Upcoming(o.events, o.sessionStart)
	if o.mode == OrderPopularity {
		ranked := ByPopularity(up)
		out := make([]Entry, len(ranked))
		for i, ev := range ranked {
			out[i] = ev
		}
		return out
	}
	now := o.clock()
	return Chronological(up, MonthSeparators(now), WeekSeparators(now))
}
