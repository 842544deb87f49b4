package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"

	"loot-tracker/internal/calibrate"
	"loot-tracker/pkg/core"
)

// Directory replays screenshots dropped into a directory, in name order for
// files present at start and in arrival order afterwards. Writers should
// create files under another name and rename them in. Files that fail to
// decode are skipped.
type Directory struct {
	dir string
	log core.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	queue   []string
	seen    map[string]bool
	region  calibrate.Region
	width   int
	height  int
	notify  chan struct{}
	done    chan struct{}
}

func NewDirectory(dir string, log core.Logger) *Directory {
	return &Directory{dir: dir, log: log}
}

func (d *Directory) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(d.dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrTargetNotFound, d.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", d.dir, err)
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to list %s: %w", d.dir, err)
	}

	d.mu.Lock()
	d.watcher = watcher
	d.seen = make(map[string]bool)
	d.queue = nil
	d.region = calibrate.Region{}
	d.notify = make(chan struct{}, 1)
	d.done = make(chan struct{})
	for _, e := range entries {
		if !e.IsDir() {
			d.enqueueLocked(filepath.Join(d.dir, e.Name()))
		}
	}
	sort.Strings(d.queue)
	d.mu.Unlock()

	go d.watch(watcher, d.done)

	d.log.Info("Watching capture directory", "dir", d.dir, "queued", len(d.queue))
	return nil
}

func (d *Directory) watch(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			d.mu.Lock()
			d.enqueueLocked(ev.Name)
			d.mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.log.Warn("Directory watch error", "dir", d.dir, "error", err)
		}
	}
}

func (d *Directory) enqueueLocked(path string) {
	if d.seen[path] || !isImage(path) {
		return
	}
	d.seen[path] = true
	d.queue = append(d.queue, path)
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp":
		return true
	}
	return false
}

func (d *Directory) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher == nil {
		return nil
	}
	close(d.done)
	err := d.watcher.Close()
	d.watcher = nil
	return err
}

func (d *Directory) NextFrame(ctx context.Context) (Frame, error) {
	for {
		d.mu.Lock()
		if d.watcher == nil {
			d.mu.Unlock()
			return Frame{}, ErrNotStarted
		}
		if len(d.queue) > 0 {
			path := d.queue[0]
			d.queue = d.queue[1:]
			region := d.region
			d.mu.Unlock()
			frame, err := d.load(path, region)
			if err != nil {
				d.log.Warn("Skipping unreadable frame", "path", filepath.Base(path), "error", err)
				continue
			}
			return frame, nil
		}
		notify, done := d.notify, d.done
		d.mu.Unlock()

		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-done:
			return Frame{}, ErrStopped
		case <-notify:
		}
	}
}

func (d *Directory) load(path string, region calibrate.Region) (Frame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to open frame %s: %w", path, err)
	}

	b := img.Bounds()
	d.mu.Lock()
	d.width, d.height = b.Dx(), b.Dy()
	d.mu.Unlock()

	r := clip(region, b.Dx(), b.Dy())
	if r != image.Rect(0, 0, b.Dx(), b.Dy()) {
		img = imaging.Crop(img, r.Add(b.Min))
	}
	d.log.Debug("Loaded frame", "path", filepath.Base(path), "rect", r.String())
	return FromImage(img), nil
}

// Reconfigure applies region to subsequent frames. Replay runs as fast as
// files arrive, so fps is ignored.
func (d *Directory) Reconfigure(region calibrate.Region, fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %v", fps)
	}
	d.mu.Lock()
	d.region = region
	d.mu.Unlock()
	d.log.Info("Capture reconfigured", "region", region.String())
	return nil
}

// Bounds reports the size of the last loaded frame.
func (d *Directory) Bounds() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}
