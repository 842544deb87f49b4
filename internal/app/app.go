// Package app wires configuration, capture, recognition, pricing and the
// control surfaces into one running tracker.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"golang.org/x/sync/errgroup"

	"loot-tracker/internal/api"
	"loot-tracker/internal/calibrate"
	"loot-tracker/internal/capture"
	"loot-tracker/internal/catalog"
	"loot-tracker/internal/ipc"
	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/overlay"
	"loot-tracker/internal/recognize"
	"loot-tracker/internal/recognize/tesseract"
	"loot-tracker/internal/storage"
	"loot-tracker/internal/tracker"
	"loot-tracker/internal/wm"
	"loot-tracker/pkg/config"
	"loot-tracker/pkg/core"
	"loot-tracker/pkg/logger"
	"loot-tracker/pkg/notify"
	"loot-tracker/pkg/sound"
)

const pruneInterval = time.Hour

// Player plays the valuable drop cue. *sound.SoundNotifier implements it.
type Player interface {
	PlayDropSound() error
}

type LootTracker struct {
	cfg      *config.Config
	log      *logger.Logger
	debug    bool
	notifier *notify.NotifyService
	db       *storage.DB
	prices   *catalog.Cached
	closers  []func() error

	Sessions *Sessions
	ipc      *ipc.Server
	api      *api.Server
}

func NewLootTracker(cfg *config.Config, log *logger.Logger, debug bool) (*LootTracker, error) {
	log.Debug("Initializing loot tracker", "debug_mode", debug)

	lt := &LootTracker{
		cfg:      cfg,
		log:      log,
		debug:    debug,
		notifier: notify.NewNotifyService(cfg.GetNotifyCommand(), log),
	}

	mode, err := loot.ParseMode(cfg.GetMode())
	if err != nil {
		return nil, err
	}

	capturer, scale, err := newCapturer(cfg, log)
	if err != nil {
		return nil, err
	}

	recognizer, err := lt.newRecognizer()
	if err != nil {
		lt.Close()
		return nil, err
	}

	db, err := storage.New(cfg.GetPriceCachePath())
	if err != nil {
		lt.Close()
		return nil, fmt.Errorf("failed to open price cache: %w", err)
	}
	lt.db = db
	lt.closers = append(lt.closers, db.Close)
	if names, err := db.Names(context.Background()); err == nil {
		log.Info("Price cache opened", "path", cfg.GetPriceCachePath(), "items", len(names))
	}

	search, detail, market := cfg.GetCatalogURLs()
	upstream := catalog.NewBdolytics(log,
		catalog.WithRegion(cfg.GetCatalogRegion()),
		catalog.WithEndpoints(search, detail, market),
	)
	lt.prices = catalog.NewCached(upstream, db, cfg.GetPriceCacheTTL(), log)

	var opts []ledger.Option
	if threshold := cfg.GetSoundThreshold(); threshold > 0 {
		player, err := sound.NewSoundNotifier()
		if err != nil {
			log.Error("Failed to initialize sound notifier", err)
		} else {
			opts = append(opts, ledger.WithIntegrateHook(DropAlert(loot.Silver(threshold), player, log)))
		}
	}
	led := ledger.New(lt.prices, log, opts...)

	anchorX, anchorY := cfg.GetDropLogAnchor()
	trackerOpts := tracker.Options{
		Anchor:       calibrate.Point{X: anchorX, Y: anchorY},
		Scale:        scale,
		TickInterval: cfg.GetTickInterval(),
	}
	factory := func(mode loot.Mode) *tracker.Tracker {
		o := trackerOpts
		o.Mode = mode
		return tracker.New(capturer, recognizer, led, log, o)
	}

	lt.Sessions = NewSessions(led, factory, mode, lt.notifier, log)
	lt.ipc = ipc.NewServer(cfg.GetSocketPath(), lt.Sessions, log)
	if addr := cfg.GetAPIAddr(); addr != "" {
		lt.api = api.NewServer(addr, lt.Sessions, log)
	}
	return lt, nil
}

func newCapturer(cfg *config.Config, log core.Logger) (capture.Capturer, float64, error) {
	scale := cfg.GetScreenScale()

	switch cfg.GetCaptureSource() {
	case "directory":
		if scale == 0 {
			scale = 100
		}
		return capture.NewDirectory(cfg.GetCaptureDir(), log), scale, nil
	default:
		manager, err := wm.NewManager(log)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to initialize window manager: %w", err)
		}
		log.Debug("Capturing through window manager", "name", manager.GetWMName())
		if scale == 0 {
			scale = wm.DisplayScale()
			log.Info("Detected display scale", "scale", scale)
		}
		var classNames []string
		if name := cfg.GetProcessName(); name != "" {
			classNames = []string{name}
		}
		return capture.NewScreen(manager, classNames, cfg.GetWindowTitles(), log), scale, nil
	}
}

func (lt *LootTracker) newRecognizer() (recognize.Recognizer, error) {
	switch lt.cfg.GetRecognizer() {
	case "tesseract":
		engine, err := tesseract.New(lt.cfg.GetTesseractLanguage())
		if err != nil {
			return nil, err
		}
		lt.closers = append(lt.closers, engine.Close)
		lt.log.Info("Using tesseract recognizer", "language", lt.cfg.GetTesseractLanguage())
		return engine, nil
	default:
		lt.log.Info("Using OCR service", "url", lt.cfg.GetOCRURL())
		return recognize.NewHTTP(lt.cfg.GetOCRURL(), lt.cfg.GetOCRTimeout()), nil
	}
}

// DropAlert plays a sound whenever one observed drop is worth at least threshold.
func DropAlert(threshold loot.Silver, player Player, log core.Logger) ledger.IntegrateHook {
	return func(entry ledger.Entry, ev loot.Event) {
		value := entry.UnitPrice.Times(ev.Amount)
		if value < threshold {
			return
		}
		log.Info("Valuable drop", "item", entry.Name, "amount", ev.Amount, "value", value.String())
		go func() {
			if err := player.PlayDropSound(); err != nil {
				log.Error("Failed to play drop sound", err)
			}
		}()
	}
}

// Run serves the control surfaces until ctx is done or the overlay closes.
// With autoStart a session begins immediately. Must be called from the main
// goroutine when the overlay is enabled.
func (lt *LootTracker) Run(ctx context.Context, autoStart bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the log pane must be attached before anything else logs concurrently
	var view *overlay.Overlay
	if lt.cfg.GetOverlay() {
		view = lt.newOverlay()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return lt.ipc.Serve(gctx) })
	if lt.api != nil {
		g.Go(func() error { return lt.api.Run(gctx) })
	}
	g.Go(func() error {
		lt.prune(gctx)
		return nil
	})

	if autoStart {
		if err := lt.Sessions.Start(gctx); err != nil {
			lt.log.Error("Failed to start session", err)
		}
	}

	if view != nil {
		view.Run(gctx)
		lt.log.Info("Overlay closed")
		cancel()
	} else {
		<-gctx.Done()
	}

	if err := lt.Sessions.Stop(); err != nil && !errors.Is(err, tracker.ErrNotStarted) {
		lt.log.Error("Failed to stop session", err)
	}
	return g.Wait()
}

func (lt *LootTracker) newOverlay() *overlay.Overlay {
	a := fyneapp.NewWithID("loot-tracker")
	var debug *overlay.DebugPanel
	if lt.debug {
		debug = overlay.NewDebugPanel(a)
		lt.log.AddWriter(debug)
	}
	return overlay.New(a, lt.Sessions, lt.log, debug)
}

func (lt *LootTracker) prune(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		if err := lt.prices.Prune(ctx); err != nil && ctx.Err() == nil {
			lt.log.Error("Failed to prune price cache", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (lt *LootTracker) Close() error {
	var errs []error
	for i := len(lt.closers) - 1; i >= 0; i-- {
		errs = append(errs, lt.closers[i]())
	}
	return errors.Join(errs...)
}
