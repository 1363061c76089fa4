package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	appLog "kulturkal/internal/log"
	"kulturkal/internal/model"
)

var ErrEmptyBody = errors.New("empty body")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseRows tokenizes a delimited sheet export. The first line is a header
// and is dropped, as are blank lines. Quoted cells are tolerated.
func ParseRows(body []byte, delim rune) ([][]string, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	if delim == 0 {
		delim = ';'
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	header := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tokenize: %w", err)
		}
		if header {
			header = false
			continue
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseCategories reads (name, colour) rows; rows without a name are skipped.
func ParseCategories(rows [][]string) []model.Category {
	out := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			continue
		}
		out = append(out, model.Category{Name: name, Color: strings.TrimSpace(cell(row, 1))})
	}
	return out
}

// ParsePlaces reads (name, lat, lng[, address, website]) rows. Rows without
// a name are skipped; rows with unreadable coordinates are dropped with a
// diagnostic.
func ParsePlaces(rows [][]string) ([]*model.Place, []model.Diagnostic) {
	out := make([]*model.Place, 0, len(rows))
	var diags []model.Diagnostic
	for _, row := range rows {
		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			continue
		}
		lat, latErr := parseCoord(cell(row, 1))
		lng, lngErr := parseCoord(cell(row, 2))
		if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			d := model.Diagnostic{
				Kind:  model.DiagBadCoordinates,
				Title: name,
				Field: "lat,lng",
				Value: strings.TrimSpace(cell(row, 1)) + "," + strings.TrimSpace(cell(row, 2)),
			}
			appLog.Warn("place has unreadable coordinates; dropped", "place", name, "value", d.Value)
			diags = append(diags, d)
			continue
		}
		out = append(out, &model.Place{
			Name:    name,
			Lat:     lat,
			Lng:     lng,
			Address: strings.TrimSpace(cell(row, 3)),
			Website: strings.TrimSpace(cell(row, 4)),
		})
	}
	return out, diags
}

// parseCoord accepts both "60.39" and the Norwegian "60,39".
func parseCoord(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
