// Package fam monitors files and directories for alterations.
//
// Monitor wraps fsnotify with recursive directory watches, basename filters
// and an explicit pump: the owner calls Process to drain pending events into
// registered listeners, so event handling happens on the owner's goroutine.
package fam

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Listener is called by Monitor for every file event that passes the
// filters. name is the full path that triggered the event.
type Listener interface {
	FamEvent(name string, op fsnotify.Op)
}

// Monitor watches directories and files for modifications.
type Monitor struct {
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	listeners []Listener
	filters   []*regexp.Regexp

	interrupt chan struct{}
}

// NewMonitor opens a file alteration monitor.
func NewMonitor() (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fam: init watcher: %w", err)
	}
	return &Monitor{
		watcher:   w,
		interrupt: make(chan struct{}, 1),
	}, nil
}

// Close releases the underlying watcher.
func (m *Monitor) Close() error {
	return m.watcher.Close()
}

// WatchDir adds a directory recursively to the monitor. Dot-directories
// below the root are skipped.
func (m *Monitor) WatchDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("fam: watch dir %s: %w", dir, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if werr := m.watcher.Add(path); werr != nil {
			return fmt.Errorf("fam: watch dir %s: %w", path, werr)
		}
		return nil
	})
}

// WatchFile adds a single file to the monitor.
func (m *Monitor) WatchFile(path string) error {
	if err := m.watcher.Add(path); err != nil {
		return fmt.Errorf("fam: watch file %s: %w", path, err)
	}
	return nil
}

// AddFilter adds a regular expression checked against the basename of every
// file that triggered an event. All filters must match or the event is not
// posted to listeners. Directory events bypass the filters.
//
// An example expression is `^[^.].*\.lua$`, matching Lua files that do not
// start with a dot.
func (m *Monitor) AddFilter(expr string) error {
	rx, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("fam: compile filter %q: %w", expr, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, rx)
	return nil
}

// AddListener registers a listener.
func (m *Monitor) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// RemoveListener removes a previously registered listener.
func (m *Monitor) RemoveListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = slices.DeleteFunc(m.listeners, func(x Listener) bool { return x == l })
}

// Process waits up to timeout for a file event, dispatches it, then drains
// any further pending events without waiting. A negative timeout waits
// until an event arrives or Interrupt is called.
func (m *Monitor) Process(timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case ev, ok := <-m.watcher.Events:
		if !ok {
			return nil
		}
		m.handle(ev)
	case err, ok := <-m.watcher.Errors:
		if !ok {
			return nil
		}
		return fmt.Errorf("fam: watch error: %w", err)
	case <-m.interrupt:
		return nil
	case <-expired:
		return nil
	}

	// Drain whatever else is already pending.
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			m.handle(ev)
		case <-m.interrupt:
			return nil
		default:
			return nil
		}
	}
}

// Interrupt unblocks a running Process call.
func (m *Monitor) Interrupt() {
	select {
	case m.interrupt <- struct{}{}:
	default:
	}
}

func (m *Monitor) handle(ev fsnotify.Event) {
	fi, statErr := os.Stat(ev.Name)
	isDir := statErr == nil && fi.IsDir()

	m.mu.Lock()
	filters := slices.Clone(m.filters)
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	valid := true
	if !isDir {
		base := filepath.Base(ev.Name)
		for _, rx := range filters {
			if !rx.MatchString(base) {
				valid = false
				break
			}
		}
	}

	if valid {
		for _, l := range listeners {
			l.FamEvent(ev.Name, ev.Op)
		}
	}

	// A new non-hidden directory under a watched root joins the watch set.
	if ev.Op.Has(fsnotify.Create) && isDir && !strings.HasPrefix(filepath.Base(ev.Name), ".") {
		// Failure to extend the watch set is not fatal for the pump.
		_ = m.WatchDir(ev.Name)
	}

	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		_ = m.watcher.Remove(ev.Name)
	}
}
