// Package watcher provides file system watching for the library directory,
// so archives dropped in from outside the worker get picked up and imported.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher monitors a directory for YAML archives being created or
// rewritten and calls onArchive with each settled file path.
type Watcher struct {
	dir       string
	onArchive func(path string)
	watcher   *fsnotify.Watcher
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	running   bool
	debounce  time.Duration
	timers    map[string]*time.Timer
}

// New creates a Watcher over dir. The directory is created if missing
// because fsnotify cannot watch a path that does not exist.
func New(dir string, onArchive func(path string)) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		dir:       dir,
		onArchive: onArchive,
		watcher:   fsw,
		ctx:       ctx,
		cancel:    cancel,
		debounce:  200 * time.Millisecond,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Start begins watching. Safe to call more than once.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	log.Info().Str("dir", w.dir).Msg("Watching library directory")
	go w.watchLoop()
	return nil
}

// Stop stops the watcher and cancels pending callbacks.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	w.cancel()
	for _, t := range w.timers {
		t.Stop()
	}
	return w.watcher.Close()
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
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
			if !isArchive(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(filepath.Clean(event.Name))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// schedule arms a per-file debounce timer. Editors and copies emit bursts
// of write events; only the last one within the window fires the callback.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		running := w.running
		w.mu.Unlock()

		if !running {
			return
		}
		if _, err := os.Stat(path); err != nil {
			return
		}

		log.Info().Str("path", path).Msg("Library archive changed")
		if w.onArchive != nil {
			w.onArchive(path)
		}
	})
}
