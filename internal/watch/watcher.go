// Package watch keeps a box index in step with out-of-band changes to the
// box directory: archive files appearing, disappearing or being renamed.
// Events are debounced so a burst of filesystem activity costs one sync.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/beadwork/bead/internal/boxindex"
)

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 500 * time.Millisecond

// Watcher drives incremental index syncs from filesystem events.
type Watcher struct {
	dir      string
	ix       *boxindex.Index
	debounce time.Duration

	// OnProgress, when set, receives every progress record of the
	// triggered syncs.
	OnProgress func(boxindex.Progress)
	// OnError, when set, receives sync and watch failures.
	OnError func(error)

	mu      sync.Mutex
	timer   *time.Timer
	trigger chan struct{}
}

// New creates a watcher for the box directory backed by its index.
func New(dir string, ix *boxindex.Index, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		ix:       ix,
		debounce: debounce,
		trigger:  make(chan struct{}, 1),
	}
}

// Run watches until the context is canceled. Sync failures are reported
// through OnError and do not stop the watcher; only a broken watch channel
// or context cancellation ends the run.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case event, ok := <-fsw.Events:
				if !ok {
					stop()
					return nil
				}
				if w.relevant(event) {
					w.schedule()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					stop()
					return nil
				}
				w.report(err)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.trigger:
				w.sync()
			}
		}
	})

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// relevant filters for archive file changes; the index file's own churn must
// not retrigger syncs.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".zip") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) sync() {
	for p, err := range w.ix.Sync() {
		if err != nil {
			w.report(err)
			return
		}
		if w.OnProgress != nil {
			w.OnProgress(p)
		}
	}
}

func (w *Watcher) report(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
