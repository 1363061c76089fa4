package sheet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	appLog "kulturkal/internal/log"
	"kulturkal/internal/model"
)

// Sources are the three sheets a calendar needs.
type Sources struct {
	Events     Source
	Places     Source
	Categories Source
}

// Tables is the tokenized content of all three sheets.
type Tables struct {
	EventRows  [][]string
	Places     *model.PlaceTable
	Categories *model.CategoryTable
	// Diagnostics found while reading the place and category sheets.
	Diagnostics []model.Diagnostic
}

// Loader fetches and tokenizes all sheets.
type Loader struct {
	Fetcher *Fetcher
	Sources Sources
}

// Load fetches the three sheets concurrently and returns only once all of
// them succeeded. The first failure cancels the remaining fetches and is
// returned; no partial Tables are produced.
func (l *Loader) Load(ctx context.Context) (*Tables, error) {
	var (
		eventRows, placeRows, categoryRows [][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		eventRows, err = l.fetchRows(gctx, l.Sources.Events)
		return err
	})
	g.Go(func() (err error) {
		placeRows, err = l.fetchRows(gctx, l.Sources.Places)
		return err
	})
	g.Go(func() (err error) {
		categoryRows, err = l.fetchRows(gctx, l.Sources.Categories)
		return err
	})
	if err := g.Wait(); err != nil {
		appLog.Error("sheet load failed", err)
		return nil, err
	}

	places, diags := ParsePlaces(placeRows)
	t := &Tables{
		EventRows:   eventRows,
		Places:      model.NewPlaceTable(places),
		Categories:  model.NewCategoryTable(ParseCategories(categoryRows)),
		Diagnostics: diags,
	}
	appLog.Info("sheets loaded",
		"event_rows", len(t.EventRows),
		"places", len(t.Places.All()),
		"categories", len(t.Categories.All()),
	)
	return t, nil
}

func (l *Loader) fetchRows(ctx context.Context, src Source) ([][]string, error) {
	res, err := l.Fetcher.FetchOne(ctx, src)
	if err != nil {
		return nil, err
	}
	rows, err := ParseRows(res.Body, src.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", src.ID, err)
	}
	return rows, nil
}
