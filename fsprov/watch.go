package fsprov

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change names a directory whose listing may have changed.
type Change struct {
	Dir string
	// Op is the union of the operations seen in Dir.
	Op fsnotify.Op
}

func (c Change) String() string {
	return c.Dir + " " + c.Op.String()
}

// Watcher collects filesystem events in the directories added to it and
// delivers them in batches once no event arrived for the debounce period.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger

	out   chan []Change
	close sync.Once
}

// NewWatcher returns a watcher batching events over debounce. A nil log
// uses slog.Default().
func NewWatcher(debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		log:      log.With("component", "fswatch"),
		out:      make(chan []Change),
	}, nil
}

// Add watches the entries of dir.
func (w *Watcher) Add(dir string) error {
	if slices.Contains(w.fsw.WatchList(), dir) {
		return nil
	}
	w.log.Debug("watching", "dir", dir)
	return w.fsw.Add(dir)
}

// Changes returns the channel of batches. It is closed when Run returns.
func (w *Watcher) Changes() <-chan []Change {
	return w.out
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.out)
	pending := map[string]fsnotify.Op{}
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC = nil, nil
	}
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ignored(ev.Name) {
				continue
			}
			dir := filepath.Dir(ev.Name)
			pending[dir] |= ev.Op
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				// a watched directory may have gone with its entries
				pending[ev.Name] |= ev.Op
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		case <-timerC:
			stop()
			batch := make([]Change, 0, len(pending))
			for dir, op := range pending {
				batch = append(batch, Change{Dir: dir, Op: op})
			}
			clear(pending)
			slices.SortFunc(batch, func(a, b Change) int { return strings.Compare(a.Dir, b.Dir) })
			w.log.Debug("changes", "dirs", len(batch))
			select {
			case w.out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close stops watching. Run returns once it notices.
func (w *Watcher) Close() error {
	var err error
	w.close.Do(func() {
		err = w.fsw.Close()
	})
	return err
}

// ignored filters editor swap and backup files.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#")
}
