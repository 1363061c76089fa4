package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"kulturkal/internal/calendar"
	"kulturkal/internal/capture"
	"kulturkal/internal/config"
	appLog "kulturkal/internal/log"
	"kulturkal/internal/sheet"
	"kulturkal/internal/web"
)

const version = "0.3.0"

// sweepSchedule is how often idle viewer sessions are dropped.
const sweepSchedule = "@every 5m"

type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	once       bool
	order      string
	icsOut     string
	snapshot   string
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("kulturkal starting", "version", version)

	if err := config.LoadEnvFile(flags.envFile); err != nil {
		appLog.Error("failed to read env file", err, "path", flags.envFile)
		os.Exit(1)
	}
	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.ApplyEnv(os.LookupEnv); err != nil {
		appLog.Error("invalid environment override", err)
		os.Exit(1)
	}
	// CLI --listen overrides config file and environment.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	order, err := calendar.ParseOrder(flags.order)
	if err != nil {
		appLog.Error("invalid -order", err)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"layout", conf.Layout,
		"default_start_time", conf.DefaultStartTime,
		"favorite_hype", conf.FavoriteHype,
		"cache_dir", conf.CacheDir,
		"once", flags.once,
	)

	sources, err := conf.SheetSources()
	if err != nil {
		appLog.Error("invalid sources", err)
		os.Exit(1)
	}
	loader := &sheet.Loader{Fetcher: sheet.NewFetcher(nil, conf.CacheDir), Sources: sources}

	srv, err := web.NewServer(conf, loader, nil)
	if err != nil {
		appLog.Error("failed to set up server", err)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.once {
		code := runOnce(ctx, srv, conf, order, flags)
		stop()
		os.Exit(code)
	}

	if err := serve(ctx, srv, conf, flags); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
	appLog.Info("kulturkal exiting")
}

// runOnce loads the sheets, prints the ordered listing and optionally
// writes the iCalendar file. It returns the process exit code.
func runOnce(ctx context.Context, srv *web.Server, conf *config.Config, order calendar.Order, flags flagConfig) int {
	if err := srv.Reload(ctx); err != nil {
		return 1
	}
	ds := srv.Dataset()
	if ds == nil {
		return 1
	}

	now := time.Now
	if loc, err := conf.Location(); err == nil {
		now = func() time.Time { return time.Now().In(loc) }
	}
	sess := ds.NewSession(now)
	sess.Order.SetMode(order)
	if err := printSequence(os.Stdout, sess.Order.Sequence(), conf.FavoriteHype); err != nil {
		appLog.Error("failed to print listing", err)
		return 1
	}

	if flags.icsOut != "" {
		if err := writeICS(flags.icsOut, web.UpcomingEvents(ds, now()), conf.FavoriteHype); err != nil {
			appLog.Error("failed to write ics", err, "path", flags.icsOut)
			return 1
		}
		appLog.Info("ics written", "path", flags.icsOut)
	}
	return 0
}

// newScheduler registers the sheet refresh and the session sweep. Specs are
// evaluated in the configured timezone, so a refresh at local midnight
// coincides with recurring weekday dates rolling over.
func newScheduler(conf *config.Config, refresh, sweep func()) (*cron.Cron, error) {
	loc, err := conf.Location()
	if err != nil {
		return nil, err
	}
	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(conf.RefreshCron, refresh); err != nil {
		return nil, fmt.Errorf("refresh schedule: %w", err)
	}
	if _, err := sched.AddFunc(sweepSchedule, sweep); err != nil {
		return nil, fmt.Errorf("sweep schedule: %w", err)
	}
	return sched, nil
}

// serve runs the HTTP server with scheduled refreshes until ctx is done.
func serve(ctx context.Context, srv *web.Server, conf *config.Config, flags flagConfig) error {
	// A failed first load leaves the server in the failed state; the next
	// scheduled refresh or a POST /api/reload tries again.
	_ = srv.Reload(ctx)

	sched, err := newScheduler(conf, func() {
		appLog.Debug("scheduled refresh")
		_ = srv.Reload(ctx)
	}, srv.SweepSessions)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return err
	}
	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if flags.snapshot != "" {
		go func() {
			opts := capture.Options{URL: localURL(conf.Listen) + "/", OutputPath: flags.snapshot}
			if conf.BasicAuth != nil {
				opts.Username, opts.Password = conf.BasicAuth.Username, conf.BasicAuth.Password
			}
			if err := capture.SnapshotPNG(ctx, opts); err != nil {
				appLog.Error("snapshot failed", err, "path", flags.snapshot)
			}
		}()
	}

	select {
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/kulturkal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional KEY=VALUE file applied before KULTURKAL_* overrides")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Load once, print the listing and exit")
	flag.StringVar(&cfg.order, "order", "chrono", "Listing order for -once: chrono or hype")
	flag.StringVar(&cfg.icsOut, "ics", "", "With -once, also write the upcoming events to this .ics file")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "After the first load, save a PNG of the list page here")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
