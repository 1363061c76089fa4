package calendar

import (
	"time"

	"kulturkal/internal/model"
)

var testLoc = time.FixedZone("CET", 3600)

// testNow is a Friday.
var testNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, testLoc)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testPlaces() *model.PlaceTable {
	return model.NewPlaceTable([]*model.Place{
		{Name: "Grieghallen", Lat: 60.3885, Lng: 5.3283, Address: "Edvard Griegs plass 1"},
		{Name: "USF Verftet", Lat: 60.3957, Lng: 5.3087},
	})
}

func testCategories() *model.CategoryTable {
	return model.NewCategoryTable([]model.Category{
		{Name: "Konsert", Color: "#e63946"},
		{Name: "Teater", Color: "#457b9d"},
		{Name: "Quiz", Color: "#2a9d8f"},
	})
}

func testNormalizer() *Normalizer {
	return &Normalizer{
		Layout:     DefaultLayout,
		Places:     testPlaces(),
		Categories: testCategories(),
		Resolver:   NewResolver(testNow),
	}
}

// row builds a DefaultLayout row from the fields that matter in most tests.
func row(title, location, date, clock, category, hype string) []string {
	r := make([]string, 12)
	r[FieldTitle] = title
	r[FieldLocation] = location
	r[FieldStartDate] = date
	r[FieldStartTime] = clock
	r[FieldCategory] = category
	r[FieldHype] = hype
	return r
}

func titles(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		switch v := e.(type) {
		case *Event:
			out = append(out, v.Title)
		case *Separator:
			out = append(out, "#"+v.Label)
		}
	}
	return out
}

func eventTitles(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		if ev, ok := e.(*Event); ok {
			out = append(out, ev.Title)
		}
	}
	return out
}
