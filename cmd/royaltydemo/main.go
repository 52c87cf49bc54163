// Package main provides royaltydemo, a scripted walk through licensing an IP and earning royalties.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/ipkit/royaltydemo/pkg/config"
	"github.com/ipkit/royaltydemo/pkg/input"
	"github.com/ipkit/royaltydemo/pkg/metrics"
	"github.com/ipkit/royaltydemo/pkg/notify"
	"github.com/ipkit/royaltydemo/pkg/progress"
	"github.com/ipkit/royaltydemo/pkg/render"
	"github.com/ipkit/royaltydemo/pkg/sequencer"
	"github.com/ipkit/royaltydemo/pkg/theme"
	"github.com/ipkit/royaltydemo/pkg/web"
	"github.com/ipkit/royaltydemo/pkg/wizard"
)

// opts holds all command-line options.
type opts struct {
	License   string `short:"l" long:"license" description:"license id: open-use, non-commercial, commercial, commercial-remix (prompts if omitted)"`
	Image     string `short:"i" long:"image" description:"image to protect (a placeholder is used if omitted)"`
	RevShare  int    `long:"rev-share" default:"-1" description:"custom revenue share of commercial licenses, percent (config default if omitted)"`
	AutoClaim bool   `short:"a" long:"auto-claim" description:"claim royalties without asking"`
	Serve     bool   `short:"s" long:"serve" description:"start web dashboard"`
	Port      int    `short:"p" long:"port" description:"web dashboard port (config default if omitted)"`
	Timeline  bool   `long:"timeline" description:"print the schedule of every license as YAML and exit"`
	Licenses  bool   `long:"licenses" description:"render the license catalog and exit"`
	LogFile   string `long:"log" description:"write a copy of the transcript to this file"`
	Debug     bool   `short:"d" long:"debug" description:"enable debug logging"`
	NoColor   bool   `long:"no-color" description:"disable color output"`
	Version   bool   `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("royaltydemo %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	setupLog(o.Debug)

	restore := quietInterrupt()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, o)
	cancel()
	restore()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLog(dbg bool) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces}
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

func run(ctx context.Context, o opts) error {
	cfg, err := config.Load("") // empty string uses default location
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	revShare, err := pickRevShare(o.RevShare, cfg.Values.DefaultRevShare)
	if err != nil {
		return err
	}

	switch {
	case o.Licenses:
		out, renderErr := render.Catalog(revShare, o.NoColor)
		if renderErr != nil {
			return renderErr
		}
		fmt.Print(out)
		return nil
	case o.Timeline:
		out, renderErr := render.Timeline(cfg.Timings())
		if renderErr != nil {
			return renderErr
		}
		fmt.Print(string(out))
		return nil
	}

	log, err := progress.NewLogger(progress.Config{
		LogFile: o.LogFile,
		License: o.License,
		NoColor: o.NoColor,
		Colors:  cfg.Colors,
	})
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer log.Close()

	notifySvc, err := notify.New(cfg.Values.Notify, log)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	a := newApp(appConfig{
		Timings:       cfg.Timings(),
		UploadAdvance: cfg.UploadAdvance(),
		RevShare:      revShare,
		Serve:         o.Serve,
		Debug:         o.Debug,
		Log:           log,
		Notify:        notifySvc,
		Metrics:       metrics.New(nil),
	})
	defer a.notifier.Wait()

	g, gctx := errgroup.WithContext(ctx)
	if o.Serve {
		port := o.Port
		if port == 0 {
			port = cfg.Values.Port
		}
		srv := web.NewServer(web.ServerConfig{Port: port, Metrics: a.metrics}, a.wiz,
			theme.NewProvider(cfg.ThemeFile()), a.pub)
		g.Go(func() error { return srv.Start(gctx) })
		log.Info("web dashboard: http://localhost:%d", port)

		// a long-running dashboard picks up timeline edits without a restart
		if watchErr := config.Watch(gctx, cfg, 0, a.applyConfig); watchErr != nil {
			lgr.Printf("[WARN] config hot reload disabled: %v", watchErr)
		}
	}

	if !o.Serve || o.License != "" || o.Image != "" {
		g.Go(func() error {
			err := a.runTerminal(gctx, terminalRun{
				License:   o.License,
				Image:     o.Image,
				AutoClaim: o.AutoClaim,
				Prompt:    input.NewTerminalCollector(),
			})
			if err != nil {
				return err
			}
			log.Info("completed in %s", log.Elapsed())
			if o.Serve {
				log.Info("dashboard keeps serving, press Ctrl+C to stop")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// pickRevShare returns the command line revenue share if given, the config default for -1.
func pickRevShare(flag, def int) (int, error) {
	switch {
	case flag == -1:
		return def, nil
	case flag < 0 || flag > 100:
		return 0, fmt.Errorf("--rev-share %d out of range 0..100", flag)
	default:
		return flag, nil
	}
}
