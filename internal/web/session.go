package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"kulturkal/internal/calendar"
	appLog "kulturkal/internal/log"
	"kulturkal/internal/model"
	"kulturkal/internal/prom"
)

const sessionCookie = "kulturkal_session"

// viewer is the server side of one browser: its calendar session, the
// markers created for it and the one place popup it may have open.
// Handlers hold mu for the whole request.
type viewer struct {
	mu sync.Mutex

	id       string
	gen      uint64
	sess     *calendar.Session
	render   *viewRenderer
	popup    *model.Place
	lastSeen time.Time
}

type sessionStore struct {
	mu   sync.Mutex
	byID map[string]*viewer
	ttl  time.Duration
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{byID: make(map[string]*viewer), ttl: ttl}
}

// get returns the viewer for the request's cookie, creating a new one (and
// setting the cookie) when the cookie is missing, malformed or expired.
func (st *sessionStore) get(w http.ResponseWriter, r *http.Request, now time.Time) *viewer {
	st.mu.Lock()
	defer st.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			if v, ok := st.byID[c.Value]; ok {
				v.lastSeen = now
				return v
			}
		}
	}

	v := &viewer{id: uuid.NewString(), lastSeen: now}
	st.byID[v.id] = v
	prom.Sessions.Set(float64(len(st.byID)))

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    v.id,
		Path:     "/",
		MaxAge:   int(st.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

// sweep drops sessions idle for longer than the TTL.
func (st *sessionStore) sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for id, v := range st.byID {
		if now.Sub(v.lastSeen) > st.ttl {
			delete(st.byID, id)
			n++
		}
	}
	prom.Sessions.Set(float64(len(st.byID)))
	return n
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.byID)
}

// SweepSessions removes idle sessions. It is meant to run on a schedule.
func (s *Server) SweepSessions() {
	if n := s.sessions.sweep(s.clock()); n > 0 {
		appLog.Debug("idle sessions removed", "count", n, "remaining", s.sessions.len())
	}
}

// withViewer runs fn with the caller's session locked and bound to the
// current dataset. In the failed state it answers 503 without calling fn.
func (s *Server) withViewer(w http.ResponseWriter, r *http.Request, fn func(v *viewer, ds *calendar.Dataset)) {
	ds, gen, err := s.current()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, titleFailed)
		return
	}

	v := s.sessions.get(w, r, s.clock())
	v.mu.Lock()
	defer v.mu.Unlock()

	s.bind(v, ds, gen)
	fn(v, ds)
}

// bind gives v a session over ds. A session built from an older dataset is
// replaced, keeping its ordering mode and checked categories.
func (s *Server) bind(v *viewer, ds *calendar.Dataset, gen uint64) {
	if v.sess != nil && v.gen == gen {
		return
	}

	var (
		mode    = calendar.OrderChronological
		checked []string
	)
	if v.sess != nil {
		mode = v.sess.Order.Mode()
		for _, t := range v.sess.Filters.Toggles() {
			if t.Checked() {
				checked = append(checked, t.Category)
			}
		}
	}

	v.sess = ds.NewSession(s.now)
	v.sess.Order.SetMode(mode)
	for _, c := range checked {
		if _, err := v.sess.Filters.Toggle(c); err != nil {
			appLog.Debug("checked category gone after reload", "category", c)
		}
	}
	v.render = &viewRenderer{favoriteHype: s.cfg.FavoriteHype}
	v.popup = nil
	v.gen = gen
}
