package overlay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"loot-tracker/internal/display"
	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/core"
)

const statusRefresh = 5 * time.Second

// Controller is the session surface driven by the overlay buttons.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Reset()
	SetMode(mode loot.Mode)
	Status() tracker.Status
	Snapshot() ledger.Snapshot
	Subscribe(ctx context.Context) <-chan ledger.Snapshot
}

// Overlay is a small always-available window with the running ledger.
type Overlay struct {
	window  fyne.Window
	control Controller
	log     core.Logger
	debug   *DebugPanel

	// UI elements
	status *widget.Label
	total  *widget.Label
	list   *widget.List
	toggle *widget.Button
	reset  *widget.Button
	mode   *widget.Select

	mu      sync.RWMutex
	entries []ledger.Entry
}

// New builds the overlay window on a. A non-nil debug panel gets a "Logs" button.
func New(a fyne.App, control Controller, log core.Logger, debug *DebugPanel) *Overlay {
	o := &Overlay{
		window:  a.NewWindow("Loot Tracker"),
		control: control,
		log:     log,
		debug:   debug,
	}
	o.build()
	o.apply(control.Snapshot())
	return o
}

func (o *Overlay) build() {
	o.status = widget.NewLabel("")
	o.total = widget.NewLabel("")

	o.list = widget.NewList(
		func() int {
			o.mu.RLock()
			defer o.mu.RUnlock()
			return len(o.entries)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			o.mu.RLock()
			defer o.mu.RUnlock()
			if id < len(o.entries) {
				item.(*widget.Label).SetText(display.FormatEntry(o.entries[id]))
			}
		},
	)

	o.toggle = widget.NewButton("Start", o.onToggle)
	o.reset = widget.NewButton("Reset", func() {
		o.control.Reset()
		o.refreshStatus()
	})
	o.mode = widget.NewSelect([]string{loot.ChatLog.String(), loot.DropLog.String()}, o.onMode)
	o.mode.SetSelected(o.control.Status().Mode.String())

	buttons := container.NewHBox(o.toggle, o.reset, o.mode)
	if o.debug != nil {
		buttons.Add(widget.NewButton("Logs", o.debug.Show))
	}

	content := container.NewBorder(
		container.NewVBox(o.status, o.total),
		buttons,
		nil,
		nil,
		o.list,
	)

	o.window.SetContent(content)
	o.window.Resize(fyne.NewSize(520, 360))
	o.refreshStatus()
}

func (o *Overlay) onToggle() {
	var err error
	if o.control.Status().State == tracker.Started {
		err = o.control.Stop()
	} else {
		// start calibrates from a captured frame; keep the UI responsive
		o.toggle.Disable()
		go func() {
			defer o.toggle.Enable()
			if err := o.control.Start(context.Background()); err != nil {
				o.log.Error("Failed to start session", err)
			}
			o.refreshStatus()
		}()
		return
	}
	if err != nil {
		o.log.Error("Failed to stop session", err)
	}
	o.refreshStatus()
}

func (o *Overlay) onMode(selected string) {
	mode, err := loot.ParseMode(selected)
	if err != nil {
		o.log.Warn("Ignoring unknown mode", "mode", selected)
		return
	}
	if mode == o.control.Status().Mode {
		return
	}
	o.control.SetMode(mode)
	o.refreshStatus()
}

// apply replaces the displayed ledger.
func (o *Overlay) apply(snap ledger.Snapshot) {
	entries := snap.Sorted()

	o.mu.Lock()
	o.entries = entries
	o.mu.Unlock()

	o.total.SetText(fmt.Sprintf("Total: %s silver", snap.Total()))
	o.list.Refresh()
}

func (o *Overlay) refreshStatus() {
	st := o.control.Status()
	o.mu.RLock()
	entries := o.entries
	o.mu.RUnlock()

	o.status.SetText(display.FormatHeader(st, entries, time.Now()))
	if st.State == tracker.Started {
		o.toggle.SetText("Stop")
	} else {
		o.toggle.SetText("Start")
	}
}

// Run shows the window and blocks until it is closed or ctx is done.
func (o *Overlay) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go o.follow(ctx)
	go func() {
		<-ctx.Done()
		o.window.Close()
	}()

	o.log.Info("Showing overlay")
	o.window.ShowAndRun()
}

func (o *Overlay) follow(ctx context.Context) {
	updates := o.control.Subscribe(ctx)
	ticker := time.NewTicker(statusRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			o.apply(snap)
			o.refreshStatus()
		case <-ticker.C:
			o.refreshStatus()
		}
	}
}
