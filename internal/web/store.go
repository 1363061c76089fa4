package web

import (
	"context"
	"time"

	"kulturkal/internal/calendar"
	appLog "kulturkal/internal/log"
	"kulturkal/internal/prom"
)

// Reload fetches all sheets and swaps in the new dataset. On failure the
// server enters the failed state: the previous dataset is dropped, not
// served stale. Concurrent reloads run one after another.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	tables, err := s.loader.Load(ctx)
	if err != nil {
		prom.Loads.WithLabelValues("error").Inc()
		prom.EventsLoaded.Set(0)

		s.dataMu.Lock()
		s.data = nil
		s.loadErr = err
		s.gen++
		s.dataMu.Unlock()

		appLog.Error("reload failed; serving failed state", err)
		return err
	}

	ds := calendar.Build(tables.EventRows, tables.Places, tables.Categories, tables.Diagnostics, calendar.BuildOptions{
		Layout:       s.layout,
		DefaultClock: s.defaultClock,
		Now:          s.now(),
	})

	prom.Loads.WithLabelValues("ok").Inc()
	prom.EventsLoaded.Set(float64(len(ds.Events)))
	for _, d := range ds.Diagnostics {
		prom.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}

	s.dataMu.Lock()
	s.data = ds
	s.loadErr = nil
	s.gen++
	s.dataMu.Unlock()

	appLog.Info("dataset reloaded",
		"events", len(ds.Events),
		"diagnostics", len(ds.Diagnostics),
		"took", time.Since(start).Round(time.Millisecond).String(),
	)
	return nil
}

// current returns the served dataset and its generation, or the error that
// put the server into the failed state.
func (s *Server) current() (*calendar.Dataset, uint64, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	if s.loadErr != nil {
		return nil, s.gen, s.loadErr
	}
	return s.data, s.gen, nil
}

// Dataset returns the served dataset, or nil in the failed state.
func (s *Server) Dataset() *calendar.Dataset {
	ds, _, err := s.current()
	if err != nil {
		return nil
	}
	return ds
}
