package host

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of filesystem events an editor save
// produces into a single reload.
const debounceDelay = 100 * time.Millisecond

// LevelWatcher watches the config file and applies log level changes at
// runtime through a shared LevelVar. It deliberately reloads nothing else:
// controllers boot once and stay as they are.
type LevelWatcher struct {
	fsw   *fsnotify.Watcher
	path  string
	level *slog.LevelVar
	log   *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// WatchLevel starts watching path for log level changes.
func WatchLevel(path string, level *slog.LevelVar, log *slog.Logger) (*LevelWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("host: watch config: %w", err)
	}

	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()

		return nil, fmt.Errorf("host: watch config %s: %w", path, err)
	}

	// Watch the directory too: editors and deploy tools replace the file
	// atomically via rename, which drops the watch on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		log.Warn("config directory not watched, atomic saves may be missed", "error", err)
	}

	w := &LevelWatcher{
		fsw:   fsw,
		path:  path,
		level: level,
		log:   log,
		stop:  make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

func (w *LevelWatcher) loop() {
	var debounce *time.Timer

	for {
		select {
		case <-w.stop:
			if debounce != nil {
				debounce.Stop()
			}

			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher error", "error", err)
		}
	}
}

// reload re-reads the config and moves the level. A file that fails to load
// or parse keeps the current level; a watcher must never break a running
// host.
func (w *LevelWatcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.log.Error("config reload failed, keeping current log level", "error", err)

		return
	}

	parsed, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		w.log.Error("config reload failed, keeping current log level", "error", err)

		return
	}

	if w.level.Level() == parsed {
		return
	}

	w.level.Set(parsed)
	w.log.Info("log level updated", "level", parsed.String())
}

// Close stops the watcher. Safe to call more than once.
func (w *LevelWatcher) Close() error {
	var err error

	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.fsw.Close()
	})

	return err
}
