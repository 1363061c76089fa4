package web

import (
	"time"

	"kulturkal/internal/calendar"
)

// eventView is the display handle of one event. It keeps a pointer to the
// event so visibility is read live; the rest is fixed at render time.
type eventView struct {
	ev       *calendar.Event
	when     string
	favorite bool
	marker   *marker
}

type separatorView struct {
	kind  string
	label string
}

// marker is one map marker. It exists only for events whose location
// resolved to a place.
type marker struct {
	id    int
	ev    *calendar.Event
	scale float64
}

// markerScale sizes a marker by hype.
func markerScale(hype int) float64 {
	h := float64(hype)
	return 5 + h*h/4
}

// viewRenderer creates list handles and registers a marker for every placed
// event it renders. One renderer belongs to one session.
type viewRenderer struct {
	favoriteHype int
	markers      []*marker
}

func (r *viewRenderer) RenderEvent(ev *calendar.Event) any {
	v := &eventView{
		ev:       ev,
		when:     ev.When(),
		favorite: ev.Favorite(r.favoriteHype),
	}
	if ev.Place != nil {
		m := &marker{id: len(r.markers) + 1, ev: ev, scale: markerScale(ev.Hype)}
		r.markers = append(r.markers, m)
		v.marker = m
	}
	return v
}

func (r *viewRenderer) RenderSeparator(sep *calendar.Separator) any {
	return &separatorView{kind: string(sep.Kind), label: sep.Label}
}

// entryDTO is the JSON and template shape of a list entry.
type entryDTO struct {
	Kind string `json:"kind"`

	// Separators.
	Label string `json:"label,omitempty"`

	// Events.
	Title          string    `json:"title,omitempty"`
	When           string    `json:"when,omitempty"`
	Start          time.Time `json:"start,omitzero"`
	End            time.Time `json:"end,omitzero"`
	Location       string    `json:"location,omitempty"`
	Venue          string    `json:"venue,omitempty"`
	Category       string    `json:"category,omitempty"`
	Color          string    `json:"color,omitempty"`
	Description    string    `json:"description,omitempty"`
	Website        string    `json:"website,omitempty"`
	Hype           int       `json:"hype,omitempty"`
	Favorite       bool      `json:"favorite,omitempty"`
	Repeating      bool      `json:"repeating,omitempty"`
	RepeatingLabel string    `json:"repeating_label,omitempty"`
	MarkerID       int       `json:"marker_id,omitempty"`

	Visible bool `json:"visible"`
}

func (v *eventView) dto() entryDTO {
	e := v.ev
	d := entryDTO{
		Kind:           "event",
		Title:          e.Title,
		When:           v.when,
		Start:          e.Start,
		End:            e.End,
		Location:       e.Location,
		Venue:          e.Venue,
		Category:       e.Category,
		Color:          e.Color,
		Description:    e.Description,
		Website:        e.Website,
		Hype:           e.Hype,
		Favorite:       v.favorite,
		Repeating:      e.Repeating,
		RepeatingLabel: e.RepeatingLabel,
		Visible:        e.Visible(),
	}
	if v.marker != nil {
		d.MarkerID = v.marker.id
	}
	return d
}

func (v *separatorView) dto() entryDTO {
	return entryDTO{Kind: v.kind, Label: v.label, Visible: true}
}

// entriesOf materializes a sequence with r and converts it for output.
func entriesOf(seq []calendar.Entry, r calendar.Renderer) []entryDTO {
	out := make([]entryDTO, 0, len(seq))
	for _, e := range seq {
		switch h := e.Materialize(r).(type) {
		case *eventView:
			out = append(out, h.dto())
		case *separatorView:
			out = append(out, h.dto())
		}
	}
	return out
}

// markerDTO is the JSON shape of a map marker.
type markerDTO struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Place    string  `json:"place"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Color    string  `json:"color"`
	Scale    float64 `json:"scale"`
	Favorite bool    `json:"favorite"`
	Visible  bool    `json:"visible"`
}

func (m *marker) dto(favoriteHype int) markerDTO {
	return markerDTO{
		ID:       m.id,
		Title:    m.ev.Title,
		Place:    m.ev.Place.Name,
		Lat:      m.ev.Place.Lat,
		Lng:      m.ev.Place.Lng,
		Color:    m.ev.Color,
		Scale:    m.scale,
		Favorite: m.ev.Favorite(favoriteHype),
		Visible:  m.ev.Visible(),
	}
}

// toggleDTO is the JSON and template shape of a category filter.
type toggleDTO struct {
	Category string `json:"category"`
	Color    string `json:"color,omitempty"`
	Checked  bool   `json:"checked"`
	Count    int    `json:"count"`
}

func togglesOf(fc *calendar.FilterController) []toggleDTO {
	out := make([]toggleDTO, 0, len(fc.Toggles()))
	for _, t := range fc.Toggles() {
		out = append(out, toggleDTO{
			Category: t.Category,
			Color:    t.Color,
			Checked:  t.Checked(),
			Count:    len(t.Events()),
		})
	}
	return out
}
