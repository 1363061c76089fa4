package web

import (
	"bytes"
	"net/http"

	"kulturkal/internal/calendar"
	appLog "kulturkal/internal/log"
)

// pageData feeds templates/index.html.
type pageData struct {
	Title       string
	Failed      bool
	FilterTitle string
	Order       string
	Entries     []entryDTO
	Toggles     []toggleDTO
	Flags       calendar.Flags
	Center      mapCenter
	Zoom        int
}

// handleIndex renders the list page for the caller's session. ?order=
// switches the ordering mode like the JSON API does. In the failed state the
// page carries only the failure title.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:       titleLoaded,
		FilterTitle: filterTitle,
		Center:      mapCenter{Lat: s.cfg.Map.CenterLat, Lng: s.cfg.Map.CenterLng},
		Zoom:        s.cfg.Map.Zoom,
	}

	status := http.StatusOK
	if _, _, err := s.current(); err != nil {
		data.Title = titleFailed
		data.Failed = true
		status = http.StatusServiceUnavailable
	} else {
		var badOrder bool
		s.withViewer(w, r, func(v *viewer, _ *calendar.Dataset) {
			if q := r.URL.Query().Get("order"); q != "" {
				m, err := calendar.ParseOrder(q)
				if err != nil {
					badOrder = true
					return
				}
				v.sess.Order.SetMode(m)
			}
			data.Order = v.sess.Order.Mode().String()
			data.Entries = entriesOf(v.sess.Order.Sequence(), v.render)
			data.Toggles = togglesOf(v.sess.Filters)
			data.Flags = v.sess.Filters.Flags()
		})
		if badOrder {
			http.Error(w, "ukjent sortering", http.StatusBadRequest)
			return
		}
		if data.Order == "" {
			// The dataset went away between the check and the session lock;
			// withViewer has already answered.
			return
		}
	}

	var buf bytes.Buffer
	if err := s.index.Execute(&buf, data); err != nil {
		appLog.Error("failed to execute index template", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
