package transcript

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher signals when a single transcript file grows or is replaced.
// It uses fsnotify on the parent directory with a polling fallback, so it
// keeps working on filesystems without inotify support.
type Watcher struct {
	path         string
	pollInterval time.Duration

	mu       sync.Mutex
	lastSize int64
	lastMod  time.Time

	changes chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string, pollInterval time.Duration) *Watcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	w := &Watcher{
		path:         path,
		pollInterval: pollInterval,
		changes:      make(chan struct{}, 1),
		stop:         make(chan struct{}),
	}
	w.lastSize, w.lastMod = w.stat()
	return w
}

// Changes delivers a coalesced notification whenever the transcript changes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching with fsnotify + polling fallback.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		if addErr := fsw.Add(filepath.Dir(w.path)); addErr != nil {
			log.Debug().Err(addErr).Str("path", w.path).Msg("fsnotify unavailable, polling only")
			_ = fsw.Close()
			fsw = nil
		}
	} else {
		fsw = nil
	}

	if fsw != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { _ = fsw.Close() }()
			for {
				select {
				case event, ok := <-fsw.Events:
					if !ok {
						return
					}
					if filepath.Clean(event.Name) != filepath.Clean(w.path) {
						continue
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
						w.check()
					}
				case err, ok := <-fsw.Errors:
					if !ok {
						return
					}
					log.Debug().Err(err).Msg("fsnotify error")
				case <-w.stop:
					return
				}
			}
		}()
	}

	// Polling fallback (always runs as safety net)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.check()
			case <-w.stop:
				return
			}
		}
	}()

	return nil
}

// Stop signals goroutines to exit and waits for them to finish.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		w.wg.Wait()
	})
}

func (w *Watcher) stat() (int64, time.Time) {
	info, err := os.Stat(w.path)
	if err != nil {
		return 0, time.Time{}
	}
	return info.Size(), info.ModTime()
}

func (w *Watcher) check() {
	size, mod := w.stat()

	w.mu.Lock()
	changed := size != w.lastSize || !mod.Equal(w.lastMod)
	w.lastSize, w.lastMod = size, mod
	w.mu.Unlock()

	if !changed {
		return
	}
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
