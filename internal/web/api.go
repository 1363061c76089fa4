package web

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"kulturkal/internal/calendar"
	"kulturkal/internal/ics"
	appLog "kulturkal/internal/log"
	"kulturkal/internal/prom"
)

type eventsResponse struct {
	Order    string         `json:"order"`
	Flags    calendar.Flags `json:"flags"`
	LoadedAt time.Time      `json:"loaded_at"`
	Entries  []entryDTO     `json:"entries"`
}

// handleEvents returns the caller's rendered sequence.
//
// GET /api/events?order=chrono|hype
//   - order: switches the session's ordering mode before rendering
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var mode *calendar.Order
	if q := r.URL.Query().Get("order"); q != "" {
		m, err := calendar.ParseOrder(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = &m
	}

	s.withViewer(w, r, func(v *viewer, ds *calendar.Dataset) {
		if mode != nil {
			v.sess.Order.SetMode(*mode)
		}
		writeJSON(w, http.StatusOK, eventsResponse{
			Order:    v.sess.Order.Mode().String(),
			Flags:    v.sess.Filters.Flags(),
			LoadedAt: ds.LoadedAt,
			Entries:  entriesOf(v.sess.Order.Sequence(), v.render),
		})
	})
}

func (s *Server) handleOrderToggle(w http.ResponseWriter, r *http.Request) {
	s.withViewer(w, r, func(v *viewer, _ *calendar.Dataset) {
		mode := v.sess.Order.Toggle()
		prom.Toggles.WithLabelValues("order").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"order": mode.String()})
	})
}

type filtersResponse struct {
	Title   string         `json:"title"`
	Toggles []toggleDTO    `json:"toggles"`
	Flags   calendar.Flags `json:"flags"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	s.withViewer(w, r, func(v *viewer, _ *calendar.Dataset) {
		writeJSON(w, http.StatusOK, filtersResponse{
			Title:   filterTitle,
			Toggles: togglesOf(v.sess.Filters),
			Flags:   v.sess.Filters.Flags(),
		})
	})
}

type toggleResponse struct {
	Category string         `json:"category"`
	Checked  bool           `json:"checked"`
	Flags    calendar.Flags `json:"flags"`
}

// handleFilterToggle flips one category.
//
// POST /api/filters/{category}/toggle
func (s *Server) handleFilterToggle(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	s.withViewer(w, r, func(v *viewer, _ *calendar.Dataset) {
		flags, err := v.sess.Filters.Toggle(category)
		if errors.Is(err, calendar.ErrUnknownCategory) {
			writeError(w, http.StatusNotFound, "ukjent kategori: "+category)
			return
		}
		t, _ := v.sess.Filters.Lookup(category)
		prom.Toggles.WithLabelValues("filter").Inc()
		writeJSON(w, http.StatusOK, toggleResponse{Category: t.Category, Checked: t.Checked(), Flags: flags})
	})
}

type mapCenter struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type markersResponse struct {
	Center  mapCenter   `json:"center"`
	Zoom    int         `json:"zoom"`
	Markers []markerDTO `json:"markers"`
}

// handleMarkers lists one marker per placed upcoming event. Markers are
// created once per session; later calls only report their visibility.
func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	s.withViewer(w, r, func(v *viewer, _ *calendar.Dataset) {
		for _, ev := range v.sess.Order.Events() {
			ev.Materialize(v.render)
		}
		out := make([]markerDTO, 0, len(v.render.markers))
		for _, m := range v.render.markers {
			out = append(out, m.dto(s.cfg.FavoriteHype))
		}
		writeJSON(w, http.StatusOK, markersResponse{
			Center:  mapCenter{Lat: s.cfg.Map.CenterLat, Lng: s.cfg.Map.CenterLng},
			Zoom:    s.cfg.Map.Zoom,
			Markers: out,
		})
	})
}

type popupResponse struct {
	Place string `json:"place"`
	HTML  string `json:"html"`
	// Closed names the popup this one replaced, if any.
	Closed string `json:"closed,omitempty"`
}

// handlePopup opens the info popup of a place. A session has at most one
// open popup; opening another closes the previous one.
func (s *Server) handlePopup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.withViewer(w, r, func(v *viewer, ds *calendar.Dataset) {
		p, ok := ds.Places.Lookup(name)
		if !ok {
			writeError(w, http.StatusNotFound, "ukjent sted: "+name)
			return
		}
		resp := popupResponse{Place: p.Name, HTML: p.Popup()}
		if v.popup != nil && v.popup != p {
			resp.Closed = v.popup.Name
		}
		v.popup = p
		writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handlePopupClose(w http.ResponseWriter, r *http.Request) {
	s.withViewer(w, r, func(v *viewer, _ *calendar.Dataset) {
		closed := ""
		if v.popup != nil {
			closed = v.popup.Name
		}
		v.popup = nil
		writeJSON(w, http.StatusOK, map[string]string{"closed": closed})
	})
}

type reloadResponse struct {
	Events      int       `json:"events"`
	Diagnostics int       `json:"diagnostics"`
	LoadedAt    time.Time `json:"loaded_at"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, titleFailed)
		return
	}
	ds := s.Dataset()
	if ds == nil {
		// A concurrent reload failed after ours.
		writeError(w, http.StatusServiceUnavailable, titleFailed)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Events:      len(ds.Events),
		Diagnostics: len(ds.Diagnostics),
		LoadedAt:    ds.LoadedAt,
	})
}

// handleICS exports the upcoming events, chronologically, as iCalendar.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	ds, _, err := s.current()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, titleFailed)
		return
	}

	var buf bytes.Buffer
	opts := ics.Options{Stamp: s.now(), FavoriteHype: s.cfg.FavoriteHype}
	if err := ics.Write(&buf, UpcomingEvents(ds, s.now()), opts); err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "eksport feilet")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="kulturkal.ics"`)
	_, _ = w.Write(buf.Bytes())
}

// UpcomingEvents lists the dataset's upcoming events in chronological order.
func UpcomingEvents(ds *calendar.Dataset, now time.Time) []*calendar.Event {
	seq := calendar.Chronological(calendar.Upcoming(ds.Events, now))
	out := make([]*calendar.Event, 0, len(seq))
	for _, e := range seq {
		if ev, ok := e.(*calendar.Event); ok {
			out = append(out, ev)
		}
	}
	return out
}
