package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/chrisuehlinger/multiselect/bridge"
	"github.com/chrisuehlinger/multiselect/httpapi"
	"github.com/chrisuehlinger/multiselect/loop"
	"github.com/chrisuehlinger/multiselect/page"
	"github.com/chrisuehlinger/multiselect/persist"
	"github.com/chrisuehlinger/multiselect/session"
	"github.com/chrisuehlinger/multiselect/settings"
	"github.com/chrisuehlinger/multiselect/ui"
)

func main() {
	dbPath := flag.String("db", "multiselect.db", "SQLite file for saved selections (empty keeps them in memory)")
	settingsPath := flag.String("settings", "settings.yaml", "YAML settings file")
	serveAddr := flag.String("serve", "", "serve the command channel over HTTP on this address")
	scriptPath := flag.String("script", "", "run a script against the page before exiting")
	headless := flag.Bool("headless", false, "do not open a window")
	sharedKey := flag.Bool("shared-key", false, "store every page's selections under one key")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <page URL or file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*logLevel)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flag.Arg(0), options{
		dbPath:       *dbPath,
		settingsPath: *settingsPath,
		serveAddr:    *serveAddr,
		scriptPath:   *scriptPath,
		headless:     *headless,
		sharedKey:    *sharedKey,
	}, logger); err != nil {
		logger.Error("multiselect failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	dbPath       string
	settingsPath string
	serveAddr    string
	scriptPath   string
	headless     bool
	sharedKey    bool
}

func run(ctx context.Context, src string, opts options, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loader, err := page.NewLoader(page.WithLogger(logger))
	if err != nil {
		return err
	}
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}

	var store persist.Store = persist.NewMemoryStore()
	if opts.dbPath != "" {
		db, err := persist.OpenSQLite(opts.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
	}

	prefs, err := settings.OpenFile(opts.settingsPath, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := prefs.Watch(ctx); err != nil {
			logger.Warn("settings watch stopped", "error", err)
		}
	}()

	l := loop.New(loop.WithLogger(logger))
	cfg := session.Config{
		Document:    doc,
		Loop:        l,
		Settings:    prefs,
		Persistence: store,
		SharedKey:   opts.sharedKey,
		Logger:      logger,
	}

	var a fyne.App
	if !opts.headless {
		a = app.NewWithID("io.github.chrisuehlinger.multiselect")
		cfg.Clipboard = ui.NewClipboard(a.Clipboard())
	}

	s := session.New(cfg)
	report := s.Open(ctx)
	logger.Info("page ready", "url", doc.URL(), "restored", report.Restored(), "saved", report.Total)
	defer s.Close()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = l.Run(ctx)
	}()
	defer func() {
		cancel()
		<-loopDone
	}()

	if opts.serveAddr != "" {
		go func() {
			if err := httpapi.Serve(ctx, opts.serveAddr, httpapi.NewRouter(s, logger), logger); err != nil {
				logger.Error("command channel stopped", "error", err)
				cancel()
			}
		}()
	}

	if opts.scriptPath != "" {
		code, err := os.ReadFile(opts.scriptPath)
		if err != nil {
			return err
		}
		rt := bridge.New(l, s, prefs, logger)
		if _, err := rt.Eval(ctx, string(code)); err != nil {
			return fmt.Errorf("script %s: %w", opts.scriptPath, err)
		}
		// Let callbacks queued by the script run before reading results.
		if err := l.Call(ctx, func() {}); err != nil {
			return err
		}
	}

	switch {
	case a != nil:
		ui.NewViewer(a, s, logger).ShowAndRun()
	case opts.serveAddr != "":
		<-ctx.Done()
	default:
		resp, err := s.Dispatch(ctx, session.Message{Type: session.MessageGetSelections})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return nil
}
