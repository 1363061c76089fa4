package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Oslo must resolve on hosts without a zoneinfo db
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"kulturkal/internal/calendar"
	"kulturkal/internal/sheet"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment variables (optionally from a .env file) are
// applied on top with ApplyEnv.

const (
	defaultListen     = "127.0.0.1:8080"
	defaultTimezone   = "Europe/Oslo"
	defaultRefresh    = "*/30 * * * *"
	defaultStartTime  = "18:00"
	defaultFavorite   = 3
	defaultSessionTTL = 120
	defaultDelimiter  = ";"
	defaultMapZoom    = 14
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KULTURKAL_"

// SourceConfig describes one published sheet.
type SourceConfig struct {
	// URL is the CSV/TSV export endpoint.
	URL string `yaml:"url" json:"url"`
	// Delimiter is ";" (default), "," or "tab".
	Delimiter string `yaml:"delimiter" json:"delimiter"`
}

// SourcesConfig groups the three sheets a calendar is built from.
type SourcesConfig struct {
	Events     SourceConfig `yaml:"events" json:"events"`
	Places     SourceConfig `yaml:"places" json:"places"`
	Categories SourceConfig `yaml:"categories" json:"categories"`
}

// MapConfig positions the map view.
type MapConfig struct {
	CenterLat float64 `yaml:"center_lat" json:"center_lat"`
	CenterLng float64 `yaml:"center_lng" json:"center_lng"`
	Zoom      int     `yaml:"zoom" json:"zoom"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone dates in the sheet are read in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a standard 5-field cron schedule for reloading the sheets.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DefaultStartTime is used when an event row has no readable start time.
	DefaultStartTime string `yaml:"default_start_time" json:"default_start_time"`

	// FavoriteHype is the hype level from which an event is a favourite.
	FavoriteHype int `yaml:"favorite_hype" json:"favorite_hype"`

	// SessionTTLMinutes is how long an idle viewer session is kept.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" json:"session_ttl_minutes"`

	// CacheDir enables conditional requests against the sheets. Empty disables it.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Sources SourcesConfig `yaml:"sources" json:"sources"`

	// Layout names the event sheet column layout: "default" or "classic".
	Layout string `yaml:"layout" json:"layout"`

	Map MapConfig `yaml:"map" json:"map"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration. The source URLs
// are left empty; they have to be filled in before the server can start.
func DefaultConfig() *Config {
	return &Config{
		Listen:            defaultListen,
		Timezone:          defaultTimezone,
		RefreshCron:       defaultRefresh,
		DefaultStartTime:  defaultStartTime,
		FavoriteHype:      defaultFavorite,
		SessionTTLMinutes: defaultSessionTTL,
		Sources: SourcesConfig{
			Events:     SourceConfig{Delimiter: defaultDelimiter},
			Places:     SourceConfig{Delimiter: defaultDelimiter},
			Categories: SourceConfig{Delimiter: defaultDelimiter},
		},
		Layout: "default",
		Map: MapConfig{
			CenterLat: 60.390711,
			CenterLng: 5.323165,
			Zoom:      defaultMapZoom,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.DefaultStartTime == "" {
		c.DefaultStartTime = def.DefaultStartTime
	}
	if c.FavoriteHype <= 0 {
		c.FavoriteHype = def.FavoriteHype
	}
	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = def.SessionTTLMinutes
	}
	for _, s := range []*SourceConfig{&c.Sources.Events, &c.Sources.Places, &c.Sources.Categories} {
		s.URL = strings.TrimSpace(s.URL)
		if s.Delimiter == "" {
			s.Delimiter = defaultDelimiter
		}
	}
	if c.Layout == "" {
		c.Layout = def.Layout
	}
	// A map centred on 0,0 is never what anyone wants.
	if c.Map.CenterLat == 0 && c.Map.CenterLng == 0 {
		c.Map.CenterLat, c.Map.CenterLng = def.Map.CenterLat, def.Map.CenterLng
	}
	if c.Map.Zoom <= 0 {
		c.Map.Zoom = def.Map.Zoom
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Validate reports every problem that would stop the server from working.
func (c *Config) Validate() error {
	var result *multierror.Error

	for _, s := range []struct {
		name string
		src  SourceConfig
	}{
		{"events", c.Sources.Events},
		{"places", c.Sources.Places},
		{"categories", c.Sources.Categories},
	} {
		if s.src.URL == "" {
			result = multierror.Append(result, fmt.Errorf("sources.%s.url is required", s.name))
		}
		if _, err := ParseDelimiter(s.src.Delimiter); err != nil {
			result = multierror.Append(result, fmt.Errorf("sources.%s.delimiter: %w", s.name, err))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		result = multierror.Append(result, fmt.Errorf("timezone: %w", err))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		result = multierror.Append(result, fmt.Errorf("refresh: %w", err))
	}
	if _, err := calendar.ParseClock(c.DefaultStartTime); err != nil {
		result = multierror.Append(result, fmt.Errorf("default_start_time: %w", err))
	}
	if _, err := calendar.LayoutByName(c.Layout); err != nil {
		result = multierror.Append(result, fmt.Errorf("layout: %w", err))
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 || c.Map.CenterLng < -180 || c.Map.CenterLng > 180 {
		result = multierror.Append(result, fmt.Errorf("map: centre %v,%v out of range", c.Map.CenterLat, c.Map.CenterLng))
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		result = multierror.Append(result, errors.New("basic_auth.username is required when basic_auth is set"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseDelimiter maps a configured delimiter to the rune the sheet
// tokenizer splits on.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ";", "semicolon":
		return ';', nil
	case "tab", "\t", `\t`:
		return '\t', nil
	case ",", "comma":
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("unsupported delimiter %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("unsupported delimiter %q", s)
	}
	return r, nil
}

// SheetSources converts the configured sources for the sheet loader.
func (c *Config) SheetSources() (sheet.Sources, error) {
	var out sheet.Sources
	for _, s := range []struct {
		id  string
		in  SourceConfig
		dst *sheet.Source
	}{
		{"events", c.Sources.Events, &out.Events},
		{"places", c.Sources.Places, &out.Places},
		{"categories", c.Sources.Categories, &out.Categories},
	} {
		d, err := ParseDelimiter(s.in.Delimiter)
		if err != nil {
			return sheet.Sources{}, fmt.Errorf("config: sources.%s: %w", s.id, err)
		}
		*s.dst = sheet.Source{ID: s.id, URL: s.in.URL, Delimiter: d}
	}
	return out, nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// StartClock returns the parsed DefaultStartTime.
func (c *Config) StartClock() (calendar.Clock, error) {
	return calendar.ParseClock(c.DefaultStartTime)
}

// RowLayout returns the configured event sheet layout.
func (c *Config) RowLayout() (calendar.RowLayout, error) {
	return calendar.LayoutByName(c.Layout)
}

// SessionTTL returns how long idle sessions live.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// LoadEnvFile reads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored; variables that are already set win.
func LoadEnvFile(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from KULTURKAL_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"LISTEN", &c.Listen},
		{"TIMEZONE", &c.Timezone},
		{"REFRESH", &c.RefreshCron},
		{"DEFAULT_START_TIME", &c.DefaultStartTime},
		{"CACHE_DIR", &c.CacheDir},
		{"LAYOUT", &c.Layout},
		{"EVENTS_URL", &c.Sources.Events.URL},
		{"EVENTS_DELIMITER", &c.Sources.Events.Delimiter},
		{"PLACES_URL", &c.Sources.Places.URL},
		{"PLACES_DELIMITER", &c.Sources.Places.Delimiter},
		{"CATEGORIES_URL", &c.Sources.Categories.URL},
		{"CATEGORIES_DELIMITER", &c.Sources.Categories.Delimiter},
	}
	for _, s := range strs {
		if v, ok := lookup(EnvPrefix + s.key); ok {
			*s.dst = v
		}
	}

	var result *multierror.Error
	for _, n := range []struct {
		key string
		dst *int
	}{
		{"FAVORITE_HYPE", &c.FavoriteHype},
		{"SESSION_TTL_MINUTES", &c.SessionTTLMinutes},
	} {
		v, ok := lookup(EnvPrefix + n.key)
		if !ok {
			continue
		}
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s%s: %w", EnvPrefix, n.key, err))
			continue
		}
		*n.dst = i
	}

	user, uok := lookup(EnvPrefix + "BASIC_AUTH_USERNAME")
	pass, pok := lookup(EnvPrefix + "BASIC_AUTH_PASSWORD")
	if uok || pok {
		if c.BasicAuth == nil {
			c.BasicAuth = &BasicAuthConfig{}
		}
		if uok {
			c.BasicAuth.Username = user
		}
		if pok {
			c.BasicAuth.Password = pass
		}
	}

	c.Normalize()
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Load does not validate; callers apply env overrides first and then call
// Validate.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".kulturkal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
