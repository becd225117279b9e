package loader

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to a set of outline files. Bursts of events
// (editors often write, rename and chmod in quick succession) collapse into
// a single notification sent once the files have been quiet for the
// debounce interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	changes  chan []string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// NewWatcher creates a watcher for paths. The containing directories are
// watched so that files replaced by rename are still seen.
func NewWatcher(paths []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool, len(paths)),
		debounce: debounce,
		changes:  make(chan []string, 1),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]bool),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			cancel()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Start begins delivering change notifications.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Changes delivers the sorted set of files that changed since the previous
// notification. The channel is never closed; stop reading after Stop.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.cancel()
	w.watcher.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				name = event.Name
			}
			if !w.files[name] {
				continue
			}
			w.schedule(name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("warning: file watcher: %v", err)
		}
	}
}

// schedule records a changed file and (re)arms the debounce timer.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for name := range w.pending {
		changed = append(changed, name)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	slices.Sort(changed)
	select {
	case <-w.ctx.Done():
	case w.changes <- changed:
	}
}
