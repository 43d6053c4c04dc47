package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

var logger = slog.Default()

func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

// DefaultDebounce is how long a Watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes of a single file. The parent directory is
// watched so that editors replacing the file by rename are noticed.
type Watcher struct {
	path     string
	debounce time.Duration
	w        *fsnotify.Watcher
}

func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, debounce: debounce, w: w}, nil
}

// Run calls onChange on the calling goroutine once writes to the file
// have settled. It returns when ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.w.Close()
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("file changed", "path", ev.Name, "op", ev.Op)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				resetTimer(timer, w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", w.path, "error", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}

// resetTimer restarts t, discarding a tick that fired but was not
// received yet.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func (w *Watcher) Path() string {
	return w.path
}
