package calendar

import (
	"errors"

	"kulturkal/internal/model"
)

var ErrUnknownCategory = errors.New("unknown category")

// toggleObserver is notified after a toggle has applied its state.
type toggleObserver interface {
	toggled(t *Toggle)
}

// Toggle is the filter control of one category. It starts unchecked.
type Toggle struct {
	Category string
	Color    string

	checked  bool
	events   []*Event
	observer toggleObserver
}

func (t *Toggle) Checked() bool { return t.checked }

// Events is the live subset of events in this toggle's category.
func (t *Toggle) Events() []*Event { return t.events }

// Toggle flips the checked state, applies it to the category's events and
// notifies the controller.
func (t *Toggle) Toggle() {
	t.checked = !t.checked
	t.apply()
}

func (t *Toggle) apply() {
	for _, ev := range t.events {
		ev.visible = t.checked
	}
	if t.observer != nil {
		t.observer.toggled(t)
	}
}

// Flags are the presentation hints recomputed after every toggle.
type Flags struct {
	// NoEventsVisible is true when no event is visible.
	NoEventsVisible bool `json:"no_events_visible"`
	// NoFiltersActive is true when no toggle is checked.
	NoFiltersActive bool `json:"no_filters_active"`
}

// FilterController owns the category toggles of a session and the
// aggregate flags derived from them.
type FilterController struct {
	events  []*Event
	toggles []*Toggle
	byKey   map[string]*Toggle
	flags   Flags
	subs    []func(Flags)
}

// NewFilterController creates one toggle per category of cats, in table
// order, followed by one per category used by events but missing from the
// table. Each toggle applies its initial off state immediately.
func NewFilterController(events []*Event, cats *model.CategoryTable) *FilterController {
	c := &FilterController{
		events: events,
		byKey:  make(map[string]*Toggle),
	}
	for _, cat := range cats.All() {
		c.add(cat.Name, cat.Color)
	}
	for _, ev := range events {
		if ev.Category == "" {
			continue
		}
		if _, ok := c.byKey[model.Key(ev.Category)]; !ok {
			c.add(ev.Category, "")
		}
	}

	for _, ev := range events {
		if t, ok := c.byKey[model.Key(ev.Category)]; ok {
			t.events = append(t.events, ev)
		}
	}
	c.recompute()
	for _, t := range c.toggles {
		t.apply()
	}
	return c
}

func (c *FilterController) add(name, color string) {
	t := &Toggle{Category: name, Color: color, observer: c}
	c.toggles = append(c.toggles, t)
	c.byKey[model.Key(name)] = t
}

// Toggles returns all toggles in display order.
func (c *FilterController) Toggles() []*Toggle { return c.toggles }

// Lookup finds the toggle of a category (case-insensitive).
func (c *FilterController) Lookup(category string) (*Toggle, bool) {
	t, ok := c.byKey[model.Key(category)]
	return t, ok
}

// Toggle flips the named category and returns the new flags.
func (c *FilterController) Toggle(category string) (Flags, error) {
	t, ok := c.Lookup(category)
	if !ok {
		return c.flags, ErrUnknownCategory
	}
	t.Toggle()
	return c.flags, nil
}

// Flags returns the current aggregate flags.
func (c *FilterController) Flags() Flags { return c.flags }

// Subscribe registers fn to be called with the new flags after every toggle.
func (c *FilterController) Subscribe(fn func(Flags)) {
	c.subs = append(c.subs, fn)
}

func (c *FilterController) toggled(*Toggle) {
	c.recompute()
	for _, fn := range c.subs {
		fn(c.flags)
	}
}

func (c *FilterController) recompute() {
	visible := false
	for _, ev := range c.events {
		if ev.visible {
			visible = true
			break
		}
	}
	active := false
	for _, t := range c.toggles {
		if t.checked {
			active = true
			break
		}
	}
	c.flags = Flags{NoEventsVisible: !visible, NoFiltersActive: !active}
}
