package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kulturkal/internal/calendar"
	"kulturkal/internal/config"
	"kulturkal/internal/model"
)

func testDataset(now time.Time) *calendar.Dataset {
	places := model.NewPlaceTable([]*model.Place{{Name: "Grieghallen", Lat: 60.3885, Lng: 5.3283}})
	cats := model.NewCategoryTable([]model.Category{{Name: "Teater", Color: "#457b9d"}})
	rows := [][]string{
		{"Peer Gynt", "Grieghallen", "", "20.11.2026", "19:30", "", "22:00", "Teater", "3", "", "", ""},
		{"Quiz", "Grieghallen", "", "Tirsdag", "20:00", "", "", "", "", "", "", "Hver tirsdag"},
	}
	return calendar.Build(rows, places, cats, nil, calendar.BuildOptions{
		Layout:       calendar.DefaultLayout,
		DefaultClock: calendar.DefaultStartClock,
		Now:          now,
	})
}

func TestPrintSequence(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	ds := testDataset(now)
	sess := ds.NewSession(func() time.Time { return now })

	var buf bytes.Buffer
	if err := printSequence(&buf, sess.Order.Sequence(), 3); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"== Oktober ==",
		"-- Uke 43 --",
		"Tirsdag 20. oktober 20:00  Quiz @ Grieghallen (Hver tirsdag)",
		"Fredag 20. november 19:30–22:00  Peer Gynt ★ @ Grieghallen [Teater]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Quiz") > strings.Index(out, "Peer Gynt") {
		t.Error("chronological order expected")
	}

	sess.Order.SetMode(calendar.OrderPopularity)
	buf.Reset()
	if err := printSequence(&buf, sess.Order.Sequence(), 3); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 2 || !strings.Contains(lines[0], "Peer Gynt") {
		t.Errorf("popularity listing = %q", lines)
	}
}

func TestWriteICS(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "kulturkal.ics")
	if err := writeICS(path, testDataset(now).Events, 3); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "SUMMARY:Peer Gynt") {
		t.Errorf("ics = %s", data)
	}
}

func TestLocalURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8080": "http://127.0.0.1:8080",
		":8080":          "http://127.0.0.1:8080",
		"0.0.0.0:9000":   "http://127.0.0.1:9000",
		"[::]:9000":      "http://127.0.0.1:9000",
		"kal.local:80":   "http://kal.local:80",
	}
	for in, want := range tests {
		if got := localURL(in); got != want {
			t.Errorf("localURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSchedulerUsesConfiguredTimezone(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Timezone = "Europe/Oslo"
	conf.RefreshCron = "0 0 * * *"

	sched, err := newScheduler(conf, func() {}, func() {})
	if err != nil {
		t.Fatal(err)
	}
	if got := sched.Location().String(); got != "Europe/Oslo" {
		t.Errorf("scheduler location = %q, want Europe/Oslo", got)
	}
	if n := len(sched.Entries()); n != 2 {
		t.Errorf("got %d entries, want 2", n)
	}

	conf.RefreshCron = "hver natt"
	if _, err := newScheduler(conf, func() {}, func() {}); err == nil {
		t.Error("expected an error for a bad refresh spec")
	}
}
