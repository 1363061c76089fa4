package model

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key normalizes a place or category name for lookups: trimmed and
// case-folded, so "  Grieghallen" and "GRIEGHALLEN" match.
func Key(name string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(name))
}

// Place is a venue from the places sheet.
type Place struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
	Website string  `json:"website,omitempty"`

	popupOnce sync.Once
	popup     string
}

// Popup returns the info-window payload for this place. It is built on the
// first call and reused afterwards.
func (p *Place) Popup() string {
	p.popupOnce.Do(func() {
		var b strings.Builder
		b.WriteString("<h3>" + html.EscapeString(p.Name) + "</h3>")
		if p.Address != "" {
			b.WriteString("<p>" + html.EscapeString(p.Address) + "</p>")
		}
		if p.Website != "" {
			fmt.Fprintf(&b, `<a href="%s" target="_blank" rel="noopener">%s</a>`,
				html.EscapeString(p.Website), html.EscapeString(p.Website))
		}
		p.popup = b.String()
	})
	return p.popup
}

// PlaceTable maps case-folded place names to places. Read-only after load.
type PlaceTable struct {
	byKey  map[string]int
	places []*Place
}

// NewPlaceTable indexes places by Key(name). Later duplicates win.
func NewPlaceTable(places []*Place) *PlaceTable {
	t := &PlaceTable{byKey: make(map[string]int, len(places))}
	for _, p := range places {
		k := Key(p.Name)
		if i, dup := t.byKey[k]; dup {
			t.places[i] = p
			continue
		}
		t.byKey[k] = len(t.places)
		t.places = append(t.places, p)
	}
	return t
}

// Lookup finds a place by trimmed, case-insensitive exact name.
func (t *PlaceTable) Lookup(name string) (*Place, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.byKey[Key(name)]
	if !ok {
		return nil, false
	}
	return t.places[i], true
}

// All returns places in sheet order.
func (t *PlaceTable) All() []*Place {
	if t == nil {
		return nil
	}
	return t.places
}

// Category is one row of the categories sheet.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryTable maps category names to display colours, preserving sheet order.
type CategoryTable struct {
	byKey map[string]int
	cats  []Category
}

func NewCategoryTable(cats []Category) *CategoryTable {
	t := &CategoryTable{byKey: make(map[string]int, len(cats))}
	for _, c := range cats {
		c.Name = strings.TrimSpace(c.Name)
		c.Color = strings.TrimSpace(c.Color)
		k := Key(c.Name)
		if i, dup := t.byKey[k]; dup {
			t.cats[i] = c
			continue
		}
		t.byKey[k] = len(t.cats)
		t.cats = append(t.cats, c)
	}
	return t
}

// Color returns the colour for a category name.
func (t *CategoryTable) Color(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.byKey[Key(name)]
	if !ok {
		return "", false
	}
	return t.cats[i].Color, true
}

// All returns categories in sheet order.
func (t *CategoryTable) All() []Category {
	if t == nil {
		return nil
	}
	return t.cats
}

// DiagnosticKind classifies a data-quality problem found while ingesting rows.
type DiagnosticKind string

const (
	DiagUnknownPlace    DiagnosticKind = "unknown_place"
	DiagUnknownCategory DiagnosticKind = "unknown_category"
	DiagBadDate         DiagnosticKind = "bad_date"
	DiagBadEndDate      DiagnosticKind = "bad_end_date"
	DiagBadTime         DiagnosticKind = "bad_time"
	DiagBadHype         DiagnosticKind = "bad_hype"
	DiagBadCoordinates  DiagnosticKind = "bad_coordinates"
)

// Diagnostic is a recoverable data-quality warning. It never aborts a load.
type Diagnostic struct {
	Kind  DiagnosticKind `json:"kind"`
	Title string         `json:"title"`
	Field string         `json:"field"`
	Value string         `json:"value"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %q %s=%q", d.Kind, d.Title, d.Field, d.Value)
}

// Capitalize title-cases a Norwegian label ("oktober" -> "Oktober").
func Capitalize(s string) string {
	return cases.Title(language.Norwegian).String(s)
}
