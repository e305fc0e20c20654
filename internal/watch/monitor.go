// Package watch observes configured root paths and requests index
// rescans on change. Watches are exact-path registrations, not
// recursive: OS watch APIs are path-count-limited and the index only
// needs a rescan trigger, not per-file diffing.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fsidx/internal/logging"
)

// DefaultDebounce is the window within which repeated notifications
// collapse into a single rescan trigger.
const DefaultDebounce = 2 * time.Second

// flushTick is how often pending notifications are checked against the
// debounce window.
const flushTick = 100 * time.Millisecond

// Monitor watches a set of paths and fires a trigger callback when
// changes settle. It never touches the index's entries directly.
type Monitor struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	trigger  func()

	mu      sync.Mutex
	paths   []string
	dirty   bool
	lastHit time.Time

	closeOnce sync.Once
}

// NewMonitor creates a monitor firing trigger after changes settle for
// the debounce window. A zero debounce selects the default.
func NewMonitor(debounce time.Duration, trigger func()) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Monitor{
		watcher:  watcher,
		debounce: debounce,
		trigger:  trigger,
	}, nil
}

// SetPaths replaces the watched path set. Registration failures are
// logged and the affected path degrades to timer-only rescans; the
// monitor keeps running for the paths that did register.
func (m *Monitor) SetPaths(paths []string) {
	m.mu.Lock()
	m.paths = append([]string(nil), paths...)
	m.mu.Unlock()
	m.reregister()
}

// reregister drops every current registration and re-adds the logical
// path set. Some platforms replace watched files via rename, which
// silently breaks the old registration, so this runs after every
// notification by contract, not only on failure.
func (m *Monitor) reregister() {
	for _, p := range m.watcher.WatchList() {
		if err := m.watcher.Remove(p); err != nil {
			logging.Debug("watch: remove %s: %v", p, err)
		}
	}
	m.mu.Lock()
	paths := append([]string(nil), m.paths...)
	m.mu.Unlock()
	for _, p := range paths {
		if err := m.watcher.Add(p); err != nil {
			logging.Warn("watch: cannot watch %s, falling back to periodic rescan: %v", p, err)
		}
	}
}

// Start runs the monitor until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.processEvents(ctx)
	go m.processPending(ctx)
}

// Close stops watching and releases resources.
func (m *Monitor) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.watcher.Close()
	})
	return err
}

func (m *Monitor) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.Close()
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			logging.Debug("watch: %s %s", event.Op, event.Name)
			m.reregister()
			m.mu.Lock()
			m.dirty = true
			m.lastHit = time.Now()
			m.mu.Unlock()
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the index degrades to
			// periodic rescans.
			logging.Warn("watch: %v", err)
		}
	}
}

// processPending fires the trigger once per settled burst.
func (m *Monitor) processPending(ctx context.Context) {
	ticker := time.NewTicker(flushTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			fire := m.dirty && time.Since(m.lastHit) >= m.debounce
			if fire {
				m.dirty = false
			}
			m.mu.Unlock()
			if fire {
				m.trigger()
			}
		}
	}
}
