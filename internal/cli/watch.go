package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jwtly10/litpost"
)

// DefaultDebounce is how long a post must stay unchanged before it is rebuilt.
const DefaultDebounce = 100 * time.Millisecond

// WatchEvent reports the rebuild of one changed post.
type WatchEvent struct {
	Path    string
	Results []BuildResult
	Err     error
}

type Watcher struct {
	processor *Processor
	debounce  time.Duration
}

func NewWatcher(p *Processor, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{processor: p, debounce: debounce}
}

// Watch rebuilds posts below root as they are written until ctx is done.
// Every rebuild is reported on events, which is closed when Watch returns.
func (w *Watcher) Watch(ctx context.Context, root string, events chan<- WatchEvent) error {
	defer close(events)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}

	d := newDebouncer(w.debounce)
	defer d.stopAndWait()

	// pending rebuilds give up on sending once Watch returns
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("watching for changes", "path", root)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, watcher, d, event, events)

		case wErr, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			slog.Error("fsnotify error", "error", wErr)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, watcher *fsnotify.Watcher, d *debouncer, event fsnotify.Event, events chan<- WatchEvent) {
	slog.Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				slog.Error("failed to watch directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if _, err := litpost.FormatOf(event.Name); err != nil {
		return
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		slog.Info("post removed, output left in place", "path", event.Name)
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	path := event.Name
	d.add(path, func() {
		results, err := w.processor.ProcessPath(ctx, path)
		select {
		case events <- WatchEvent{Path: path, Results: results, Err: err}:
		case <-ctx.Done():
		}
	})
}

// addRecursive watches root and every directory below it, skipping hidden ones.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// debouncer runs the latest function added for a key once the key has been
// quiet for delay. Calls for one key never overlap: a call that comes due
// while the previous one is running is queued and runs right after it.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	keys    map[string]*debounced
	stopped bool
	wg      sync.WaitGroup
}

type debounced struct {
	timer   *time.Timer
	gen     int
	running bool
	next    func()
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, keys: map[string]*debounced{}}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	e, ok := d.keys[key]
	if !ok {
		e = &debounced{}
		d.keys[key] = e
	}
	if e.timer != nil && e.timer.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(d.delay, func() { d.fire(key, e, gen, fn) })
}

func (d *debouncer) fire(key string, e *debounced, gen int, fn func()) {
	defer d.wg.Done()

	d.mu.Lock()
	if e.gen != gen || e.timer == nil {
		// superseded by a later add
		d.mu.Unlock()
		return
	}
	e.timer = nil
	if e.running {
		e.next = fn
		d.mu.Unlock()
		return
	}
	e.running = true
	d.mu.Unlock()

	for fn != nil {
		fn()

		d.mu.Lock()
		fn, e.next = e.next, nil
		if d.stopped {
			fn = nil
		}
		if fn == nil {
			e.running = false
			if e.timer == nil {
				delete(d.keys, key)
			}
		}
		d.mu.Unlock()
	}
}

// stopAndWait drops pending calls and waits for running ones.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true
	for key, e := range d.keys {
		if e.timer != nil && e.timer.Stop() {
			d.wg.Done()
		}
		e.timer = nil
		e.next = nil
		if !e.running {
			delete(d.keys, key)
		}
	}
	d.mu.Unlock()

	d.wg.Wait()
}
