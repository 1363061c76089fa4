package calendar

import (
	"fmt"
	"strconv"
	"strings"

	appLog "kulturkal/internal/log"
	"kulturkal/internal/model"
)

// Field names a semantic column of the events sheet.
type Field int

const (
	FieldTitle Field = iota
	FieldLocation
	FieldVenue
	FieldStartDate
	FieldStartTime
	FieldEndDate
	FieldEndTime
	FieldCategory
	FieldHype
	FieldDescription
	FieldWebsite
	FieldRepeatingLabel
	fieldCount
)

// RowLayout maps each Field to its column index, or -1 when the sheet
// revision has no such column.
type RowLayout [fieldCount]int

// DefaultLayout is the current sheet: every field, in Field order.
var DefaultLayout = RowLayout{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

// ClassicLayout is the first sheet revision (no venue or website columns,
// recurrence label before the description).
var ClassicLayout = RowLayout{
	FieldTitle:          0,
	FieldLocation:       1,
	FieldVenue:          -1,
	FieldStartDate:      2,
	FieldStartTime:      3,
	FieldEndDate:        4,
	FieldEndTime:        5,
	FieldCategory:       6,
	FieldHype:           7,
	FieldRepeatingLabel: 8,
	FieldDescription:    9,
	FieldWebsite:        -1,
}

// LayoutByName returns a built-in layout ("default" or "classic").
func LayoutByName(name string) (RowLayout, error) {
	switch name {
	case "", "default":
		return DefaultLayout, nil
	case "classic":
		return ClassicLayout, nil
	default:
		return RowLayout{}, fmt.Errorf("unknown row layout %q", name)
	}
}

func (l RowLayout) get(row []string, f Field) string {
	i := l[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Normalizer builds Events from event rows using the place and category tables.
type Normalizer struct {
	Layout     RowLayout
	Places     *model.PlaceTable
	Categories *model.CategoryTable
	Resolver   *Resolver
}

// Normalize turns one row into an Event. It returns a nil Event for rows
// whose trimmed title is empty. Diagnostics never prevent construction.
func (n *Normalizer) Normalize(row []string) (*Event, []model.Diagnostic) {
	title := strings.TrimSpace(n.Layout.get(row, FieldTitle))
	if title == "" {
		return nil, nil
	}

	ev := &Event{
		Title:       title,
		Location:    strings.TrimSpace(n.Layout.get(row, FieldLocation)),
		Venue:       strings.TrimSpace(n.Layout.get(row, FieldVenue)),
		Category:    strings.TrimSpace(n.Layout.get(row, FieldCategory)),
		Description: strings.TrimSpace(n.Layout.get(row, FieldDescription)),
		Website:     strings.TrimSpace(n.Layout.get(row, FieldWebsite)),
		StartClock:  strings.TrimSpace(n.Layout.get(row, FieldStartTime)),
		EndClock:    strings.TrimSpace(n.Layout.get(row, FieldEndTime)),
		Hype:        DefaultHype,
		visible:     true,
	}

	var diags []model.Diagnostic

	if raw := strings.TrimSpace(n.Layout.get(row, FieldHype)); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil {
			diags = append(diags, model.Diagnostic{Kind: model.DiagBadHype, Title: title, Field: "hype", Value: raw})
		} else {
			ev.Hype = h
		}
	}

	res, rdiags := n.Resolver.Resolve(title, DateFields{
		StartDate: n.Layout.get(row, FieldStartDate),
		StartTime: ev.StartClock,
		EndDate:   n.Layout.get(row, FieldEndDate),
		EndTime:   ev.EndClock,
	})
	diags = append(diags, rdiags...)
	ev.Start = res.Start
	ev.End = res.End
	ev.Repeating = res.Repeating
	if ev.Repeating {
		ev.RepeatingLabel = strings.TrimSpace(n.Layout.get(row, FieldRepeatingLabel))
	}

	// Empty cells are not lookup misses.
	if ev.Location != "" {
		if p, ok := n.Places.Lookup(ev.Location); ok {
			ev.Place = p
		} else {
			diags = append(diags, model.Diagnostic{Kind: model.DiagUnknownPlace, Title: title, Field: "location", Value: ev.Location})
		}
	}

	if ev.Category != "" {
		if c, ok := n.Categories.Color(ev.Category); ok {
			ev.Color = c
		} else {
			diags = append(diags, model.Diagnostic{Kind: model.DiagUnknownCategory, Title: title, Field: "category", Value: ev.Category})
		}
	}

	return ev, diags
}

// NormalizeAll normalizes every row, skipping title-less rows, and logs each
// diagnostic. Row numbers start at 1 for the first data row.
func (n *Normalizer) NormalizeAll(rows [][]string) ([]*Event, []model.Diagnostic) {
	events := make([]*Event, 0, len(rows))
	var diags []model.Diagnostic

	for i, row := range rows {
		ev, d := n.Normalize(row)
		for _, diag := range d {
			logDiagnostic(diag, i+1)
		}
		diags = append(diags, d...)
		if ev == nil {
			continue
		}
		ev.Row = i + 1
		events = append(events, ev)
	}

	appLog.Info("events normalized", "rows", len(rows), "events", len(events), "diagnostics", len(diags))
	return events, diags
}

func logDiagnostic(d model.Diagnostic, row int) {
	if d.Kind == model.DiagBadDate {
		appLog.Error("event has unparsable date; it will not be listed",
			ErrUnparsableDate, "row", row, "title", d.Title, "value", d.Value)
		return
	}
	appLog.Warn("event data-quality warning",
		"kind", d.Kind, "row", row, "title", d.Title, "field", d.Field, "value", d.Value)
}
