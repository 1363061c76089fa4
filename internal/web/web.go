package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"kulturkal/internal/calendar"
	"kulturkal/internal/config"
	appLog "kulturkal/internal/log"
	"kulturkal/internal/prom"
	"kulturkal/internal/sheet"
)

// Page titles and messages shown to visitors.
const (
	titleLoaded = "Kommende arrangementer"
	titleFailed = "Kunne ikke laste innhold"
	filterTitle = "Filtrer arrangementer"
)

// Loader fetches the three sheets. *sheet.Loader implements it.
type Loader interface {
	Load(ctx context.Context) (*sheet.Tables, error)
}

// Server serves the event list, the map data, the filter and ordering API
// and the iCalendar export.
type Server struct {
	cfg    *config.Config
	loader Loader
	clock  func() time.Time
	loc    *time.Location
	mux    *http.ServeMux
	index  *template.Template

	layout       calendar.RowLayout
	defaultClock calendar.Clock

	reloadMu sync.Mutex

	// Current dataset, or the error of the last load.
	dataMu  sync.RWMutex
	data    *calendar.Dataset
	loadErr error
	gen     uint64

	sessions *sessionStore
}

//go:embed templates/*.html
var templatesFS embed.FS

var errNotLoaded = errors.New("no data loaded yet")

// NewServer constructs a Server. The page template and the derived config
// values are checked here; any problem is returned and is fatal for the
// caller. clock may be nil.
func NewServer(cfg *config.Config, loader Loader, clock func() time.Time) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("web: config is nil")
	}
	if loader == nil {
		return nil, errors.New("web: loader is nil")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	layout, err := cfg.RowLayout()
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	startClock, err := cfg.StartClock()
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	index, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("web: page template: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}

	s := &Server{
		cfg:          cfg,
		loader:       loader,
		clock:        clock,
		loc:          loc,
		mux:          http.NewServeMux(),
		index:        index,
		layout:       layout,
		defaultClock: startClock,
		loadErr:      errNotLoaded,
		sessions:     newSessionStore(cfg.SessionTTL()),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// now is the server clock in the configured timezone.
func (s *Server) now() time.Time {
	return s.clock().In(s.loc)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Kulturkal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", prom.Handler())

	s.handle("GET /{$}", "index", s.handleIndex)
	s.handle("GET /calendar.ics", "ics", s.handleICS)

	s.handle("GET /api/events", "events", s.handleEvents)
	s.handle("POST /api/order/toggle", "order_toggle", s.handleOrderToggle)
	s.handle("GET /api/filters", "filters", s.handleFilters)
	s.handle("POST /api/filters/{category}/toggle", "filter_toggle", s.handleFilterToggle)
	s.handle("GET /api/markers", "markers", s.handleMarkers)
	s.handle("GET /api/places/{name}/popup", "popup", s.handlePopup)
	s.handle("DELETE /api/popup", "popup_close", s.handlePopupClose)
	s.handle("POST /api/reload", "reload", s.handleReload)
}

func (s *Server) handle(pattern, name string, fn http.HandlerFunc) {
	s.mux.Handle(pattern, prom.InstrumentHandler(name, fn))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
