package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"collabcanvas/internal/board"
	"collabcanvas/internal/config"
	"collabcanvas/internal/cursor"
	"collabcanvas/internal/net"
	"collabcanvas/internal/persist"
	"collabcanvas/internal/ui"
)

func main() {
	if err := run(); err != nil {
		slog.Error("collabcanvas stopped", "err", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	join       string
	hubOnly    bool
	offline    bool
	port       int
	dbPath     string
	dark       bool
	noDiscover bool
	logLevel   string
	exportPath string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "collabcanvas.toml", "path to the TOML config file")
	flag.StringVar(&o.join, "join", "", "hub to join, as collabcanvas://ip:port or host:port")
	flag.BoolVar(&o.hubOnly, "hub-only", false, "run only the hub, without a window")
	flag.BoolVar(&o.offline, "offline", false, "draw alone, without a hub")
	flag.IntVar(&o.port, "port", 0, "hub listen port (overrides config)")
	flag.StringVar(&o.dbPath, "db", "", "path of the autosave database (overrides config)")
	flag.BoolVar(&o.dark, "dark", false, "start in dark mode")
	flag.BoolVar(&o.noDiscover, "no-discover", false, "do not look for hubs on the LAN")
	flag.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	flag.StringVar(&o.exportPath, "export", "", "write the saved canvas to this .png or .pdf file and exit")
	flag.Parse()

	// A share link may also be passed as the only argument.
	if o.join == "" && flag.NArg() > 0 && strings.HasPrefix(flag.Arg(0), net.URLScheme) {
		o.join = flag.Arg(0)
	}
	return o
}

func loadConfig(o options) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.port != 0 {
		cfg.Network.Port = o.port
	}
	if o.dbPath != "" {
		cfg.Storage.Path = o.dbPath
	}
	if o.dark {
		cfg.Canvas.DarkMode = true
	}
	if o.noDiscover {
		cfg.Network.Discover = false
	}
	if o.join != "" {
		cfg.Network.Server = o.join
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, cfg.Validate()
}

func run() error {
	o := parseFlags()
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.exportPath != "" {
		return runExport(ctx, cfg, o.exportPath)
	}
	if o.hubOnly {
		return runHub(ctx, cfg)
	}

	server := cfg.Network.Server
	if server == "" && !o.offline && cfg.Network.Discover {
		server = discover(cfg)
	}
	switch {
	case o.offline:
		slog.Info("starting offline")
		return runWindow(ctx, cfg, &net.Offline{}, "collabcanvas", "", nil)
	case server != "":
		return runClient(ctx, cfg, server)
	default:
		return runHost(ctx, cfg)
	}
}

func discover(cfg config.Config) string {
	slog.Info("looking for hubs on the LAN", "timeout", cfg.Network.DiscoverTimeout.Duration)
	addrs, err := net.Discover(cfg.Network.DiscoverTimeout.Duration)
	if err != nil {
		slog.Warn("discovery failed", "err", err)
		return ""
	}
	if len(addrs) == 0 {
		return ""
	}
	slog.Info("found hub", "addr", addrs[0], "count", len(addrs))
	return addrs[0]
}

// startHub serves the hub and advertises it until ctx is done.
func startHub(ctx context.Context, cfg config.Config) <-chan error {
	hub := net.NewHub()
	errc := make(chan error, 1)
	go func() {
		errc <- hub.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Network.Port))
	}()

	server, err := net.Advertise(cfg.Network.Port)
	if err != nil {
		slog.Warn("mDNS advertise failed, peers must use the share link", "err", err)
		return errc
	}
	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()
	return errc
}

func runHub(ctx context.Context, cfg config.Config) error {
	slog.Info("starting as HUB", "share", net.ShareLink(net.GetOutgoingIP(), cfg.Network.Port))
	return <-startHub(ctx, cfg)
}

func runHost(ctx context.Context, cfg config.Config) error {
	slog.Info("starting as HOST")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := startHub(ctx, cfg)

	link := net.ShareLink(net.GetOutgoingIP(), cfg.Network.Port)
	local := fmt.Sprintf("ws://127.0.0.1:%d/ws", cfg.Network.Port)
	werr := joinAndRun(ctx, cfg, local, "collabcanvas (host)", link)
	cancel()
	if herr := <-errc; herr != nil {
		return errors.Join(werr, fmt.Errorf("hub: %w", herr))
	}
	return werr
}

func runClient(ctx context.Context, cfg config.Config, server string) error {
	url, err := net.WebsocketURL(server)
	if err != nil {
		return err
	}
	slog.Info("starting as CLIENT", "hub", url)
	return joinAndRun(ctx, cfg, url, "collabcanvas", "")
}

func joinAndRun(ctx context.Context, cfg config.Config, url, title, shareLink string) error {
	app := ui.NewApp(title)
	cursors := cursor.New(float64(cfg.Canvas.Width), float64(cfg.Canvas.Height))
	client := net.Dial(ctx, net.ClientOptions{
		URL:        url,
		MinBackoff: cfg.Network.ReconnectBackoff.Duration,
		OnWelcome: func(id string) {
			cursors.SetSelf(id)
			slog.Info("joined session", "peer", id)
		},
		OnStatus: func(connected bool, err error) {
			switch {
			case connected:
				app.SetStatus("Connected")
			case err != nil:
				app.SetStatus("Disconnected: " + err.Error())
			default:
				app.SetStatus("Disconnected")
			}
		},
	})
	return runWindowWith(ctx, cfg, app, client, shareLink, cursors)
}

func runWindow(ctx context.Context, cfg config.Config, ch net.Channel, title, shareLink string, cursors *cursor.Aggregator) error {
	return runWindowWith(ctx, cfg, ui.NewApp(title), ch, shareLink, cursors)
}

func runWindowWith(ctx context.Context, cfg config.Config, app *ui.App, ch net.Channel, shareLink string, cursors *cursor.Aggregator) error {
	opts := board.SessionOptions{
		Channel:          ch,
		Store:            openStore(cfg),
		Cursors:          cursors,
		AutosaveInterval: cfg.Storage.AutosaveWait.Duration,
	}
	if cfg.Canvas.TemplateDir != "" {
		opts.Templates = board.DirTemplates{Dir: cfg.Canvas.TemplateDir}
	}
	return app.Run(ctx, newEngine(cfg), opts, shareLink)
}

func newEngine(cfg config.Config) *board.Engine {
	return board.NewEngine(board.Options{
		Width:        cfg.Canvas.Width,
		Height:       cfg.Canvas.Height,
		DarkMode:     cfg.Canvas.DarkMode,
		HistoryDepth: cfg.Canvas.HistoryDepth,
	})
}

func openStore(cfg config.Config) persist.Store {
	s, err := persist.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		slog.Warn("autosave database unavailable, keeping state in memory", "path", cfg.Storage.Path, "err", err)
		return persist.NewMemoryStore()
	}
	return s
}

// runExport renders the saved canvas to path without opening a window.
func runExport(ctx context.Context, cfg config.Config, path string) error {
	store, err := persist.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return err
	}
	s := board.NewSession(newEngine(cfg), board.SessionOptions{Store: store})
	if err := s.Restore(ctx); err != nil {
		_ = s.Close(ctx)
		return err
	}
	written, err := s.Export(path)
	if cerr := s.Close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	slog.Info("exported canvas", "path", written)
	return nil
}
