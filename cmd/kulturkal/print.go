package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"kulturkal/internal/calendar"
	"kulturkal/internal/ics"
)

// textRenderer renders entries as plain text lines for -once.
type textRenderer struct {
	favoriteHype int
}

func (r textRenderer) RenderEvent(ev *calendar.Event) any {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(ev.When())
	b.WriteString("  ")
	b.WriteString(ev.Title)
	if ev.Favorite(r.favoriteHype) {
		b.WriteString(" ★")
	}
	if ev.Location != "" {
		b.WriteString(" @ ")
		b.WriteString(ev.Location)
	}
	if ev.Category != "" {
		b.WriteString(" [")
		b.WriteString(ev.Category)
		b.WriteString("]")
	}
	if ev.RepeatingLabel != "" {
		b.WriteString(" (")
		b.WriteString(ev.RepeatingLabel)
		b.WriteString(")")
	}
	return b.String()
}

func (r textRenderer) RenderSeparator(sep *calendar.Separator) any {
	if sep.Kind == calendar.SeparatorMonth {
		return "\n== " + sep.Label + " =="
	}
	return "-- " + sep.Label + " --"
}

// printSequence writes one line per entry.
func printSequence(w io.Writer, seq []calendar.Entry, favoriteHype int) error {
	bw := bufio.NewWriter(w)
	r := textRenderer{favoriteHype: favoriteHype}
	for _, e := range seq {
		if _, err := fmt.Fprintln(bw, e.Materialize(r)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeICS(path string, events []*calendar.Event, favoriteHype int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ics.Write(f, events, ics.Options{FavoriteHype: favoriteHype}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// localURL turns a listen address into a URL the local machine can open.
func localURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
