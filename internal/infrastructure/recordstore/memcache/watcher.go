package memcache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last
// filesystem event before refreshing the affected records. Atomic
// writes produce several events per record; one refresh suffices.
const DefaultDebounce = 250 * time.Millisecond

// Watcher refreshes a Cache when another process writes the store
// directory. The publication service refreshes the cache itself, so the
// watcher only matters for out-of-band writers.
type Watcher struct {
	cache    *Cache
	log      *slog.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher watches the entity and relationship directories under the
// store root. A non-positive debounce selects DefaultDebounce.
func NewWatcher(cache *Cache, root string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating directory watcher: %w", err)
	}
	for _, sub := range []string{"entities", "relationships"} {
		if err := fsw.Add(filepath.Join(root, sub)); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", sub, err)
		}
	}

	return &Watcher{
		cache:    cache,
		log:      log,
		debounce: debounce,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the watch loop until the context is cancelled or Close is
// called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Close stops the watch loop and releases the filesystem watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	pending := make(map[string]struct{})
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			id, ok := eventRecordID(event)
			if !ok {
				continue
			}
			pending[id] = struct{}{}
			flush = time.After(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("directory watcher error", "error", err)
		case <-flush:
			for id := range pending {
				if err := w.cache.Refresh(ctx, id); err != nil {
					w.log.Warn("cache refresh failed", "id", id, "error", err)
				}
			}
			w.log.Debug("cache refreshed from directory events", "records", len(pending))
			pending = make(map[string]struct{})
			flush = nil
		}
	}
}

// eventRecordID maps a filesystem event to the record identifier it
// concerns. Temp files from in-flight atomic writes are skipped.
func eventRecordID(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	name = strings.TrimSuffix(name, ".json")
	name = strings.ReplaceAll(name, "~", "/")
	name = strings.ReplaceAll(name, "=", ":")
	return name, true
}
