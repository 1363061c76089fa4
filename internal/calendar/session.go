package calendar

import (
	"time"

	"kulturkal/internal/model"
)

// Dataset is the immutable result of one load: normalized events plus the
// tables they were resolved against. Sessions get their own event copies.
type Dataset struct {
	Events      []*Event
	Places      *model.PlaceTable
	Categories  *model.CategoryTable
	Diagnostics []model.Diagnostic
	LoadedAt    time.Time
}

// BuildOptions configure normalization.
type BuildOptions struct {
	Layout       RowLayout
	DefaultClock Clock
	Now          time.Time
}

// Build normalizes event rows against the place and category tables.
// Diagnostics gathered while loading the tables are passed in and kept.
func Build(rows [][]string, places *model.PlaceTable, cats *model.CategoryTable, tableDiags []model.Diagnostic, opts BuildOptions) *Dataset {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	n := &Normalizer{
		Layout:     opts.Layout,
		Places:     places,
		Categories: cats,
		Resolver:   &Resolver{Now: opts.Now, DefaultClock: opts.DefaultClock},
	}
	events, diags := n.NormalizeAll(rows)

	all := make([]model.Diagnostic, 0, len(tableDiags)+len(diags))
	all = append(all, tableDiags...)
	all = append(all, diags...)

	return &Dataset{
		Events:      events,
		Places:      places,
		Categories:  cats,
		Diagnostics: all,
		LoadedAt:    opts.Now,
	}
}

// Session is one viewer's state: its event copies, ordering mode and
// category filters. It is not safe for concurrent use.
type Session struct {
	Events  []*Event
	Order   *Orderer
	Filters *FilterController
}

// NewSession copies the dataset's events and builds fresh ordering and
// filter state around them. Filters only cover events that are listed at
// session start, so toggle counts and NoEventsVisible match the list.
func (d *Dataset) NewSession(clock func() time.Time) *Session {
	events := make([]*Event, len(d.Events))
	for i, ev := range d.Events {
		events[i] = ev.clone()
	}
	order := NewOrderer(events, clock)
	return &Session{
		Events:  events,
		Order:   order,
		Filters: NewFilterController(Upcoming(events, order.sessionStart), d.Categories),
	}
}
