package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/pkg/errors"

	"github.com/ayusman/handsteer/internal/app"
	"github.com/ayusman/handsteer/internal/capture"
	"github.com/ayusman/handsteer/internal/config"
	"github.com/ayusman/handsteer/internal/detector"
	"github.com/ayusman/handsteer/internal/emit"
	"github.com/ayusman/handsteer/internal/follow"
	"github.com/ayusman/handsteer/internal/log"
	"github.com/ayusman/handsteer/internal/server"
	"github.com/ayusman/handsteer/internal/store"
	"github.com/ayusman/handsteer/internal/timeutil"
	"github.com/ayusman/handsteer/internal/tray"
)

type options struct {
	addr     string
	config   string
	profile  string
	camera   int
	db       string
	web      string
	preview  bool
	tray     bool
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	flag.StringVar(&opts.config, "config", "", "tuning file (.json)")
	flag.StringVar(&opts.profile, "profile", "", "stored profile to load by name; overrides -config")
	flag.IntVar(&opts.camera, "camera", 0, "camera device index")
	flag.StringVar(&opts.db, "db", "", "database path (default ~/.handsteer/handsteer.db)")
	flag.StringVar(&opts.web, "web", "", "static viewer directory")
	flag.BoolVar(&opts.preview, "preview", false, "keep JPEG previews of processed frames")
	flag.BoolVar(&opts.tray, "tray", false, "show a system tray icon")
	flag.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.Parse()

	log.Init(opts.logLevel)

	if err := run(opts); err != nil {
		log.Error("handsteer failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := opts.db
	if dbPath == "" {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		dbPath = filepath.Join(dir, "handsteer.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer st.Close()

	tuning, err := loadTuning(opts, st)
	if err != nil {
		return err
	}
	if opts.preview {
		tuning.Scheduler.Preview = true
	}
	appCfg, err := tuning.AppConfig()
	if err != nil {
		return err
	}
	followCfg, err := tuning.FollowConfig()
	if err != nil {
		return err
	}

	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		return err
	}
	cam := capture.NewCamera(tuning.CameraConfig(opts.camera))

	hub := server.NewHub()
	latch := &follow.Latch{}
	driver := follow.NewDriver(followCfg, latch, timeutil.RealClock{})
	animator := follow.NewAnimator(followCfg, latch, timeutil.RealClock{}, hub.OnPose)

	handlers := emit.Fanout{driver, hub}
	var tr *tray.Tray
	if opts.tray {
		tr = tray.New()
		handlers = append(handlers, tr.Status())
	}

	pipeline := app.New(appCfg, cam, det, handlers)
	if err := pipeline.Start(ctx); err != nil {
		// The viewer and profile API stay up; PUT /api/enabled or the tray
		// toggle restarts the pipeline once the setup is fixed.
		log.Error("pipeline did not start", "error", err)
	}
	defer func() {
		if err := pipeline.Stop(); err != nil && !errors.Is(err, app.ErrNotStarted) {
			log.Warn("pipeline stop", "error", err)
		}
	}()

	go func() {
		if err := animator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("animator stopped", "error", err)
		}
	}()

	webDir := opts.web
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Info("serving viewer", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  pipeline,
		Hub:       hub,
		Pose:      animator.Pose,
		Finalize:  driver.Finalize,
	})

	if tr == nil {
		log.Info("starting server", "addr", opts.addr)
		return srv.Run(ctx, opts.addr)
	}

	// systray must own the main goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr.OnToggle(func(enabled bool) {
		pipeline.SetEnabled(enabled)
		if enabled && !pipeline.Running() {
			if err := pipeline.Start(ctx); err != nil {
				log.Error("pipeline did not start", "error", err)
			}
		}
	})
	tr.OnOpen(func() { openBrowser(viewerURL(opts.addr)) })
	tr.OnQuit(cancel)

	errc := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", opts.addr)
		errc <- srv.Run(ctx, opts.addr)
		tr.Quit()
	}()
	tr.Run()
	cancel()
	return <-errc
}

// loadTuning picks the calibration: a stored profile named by -profile,
// then the -config file, then the active profile, then the defaults.
func loadTuning(opts options, st *store.Store) (*config.Tuning, error) {
	if opts.profile != "" {
		p, err := st.Profiles().GetByName(opts.profile)
		if err != nil {
			return nil, errors.Wrapf(err, "profile %q", opts.profile)
		}
		log.Info("using profile", "name", p.Name)
		return config.Parse(p.Config)
	}
	if opts.config != "" {
		log.Info("using tuning file", "path", opts.config)
		return config.Load(opts.config)
	}

	id, err := st.Settings().GetOr(store.SettingActiveProfile, "")
	if err != nil {
		return nil, err
	}
	if id != "" {
		p, err := st.Profiles().GetByID(id)
		switch {
		case err == nil:
			log.Info("using active profile", "name", p.Name)
			return config.Parse(p.Config)
		case errors.Is(err, store.ErrNotFound):
			log.Warn("active profile missing, using defaults", "id", id)
		default:
			return nil, err
		}
	}
	return config.Default(), nil
}

func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}
	dir := filepath.Join(home, ".handsteer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create data directory")
	}
	return dir, nil
}

// findWebDir returns the first of web, ../web, ../../web and
// ~/.handsteer/web that exists, or "".
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".handsteer", "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

func viewerURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return fmt.Sprintf("http://%s/", addr)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}
