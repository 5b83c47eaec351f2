package lock

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Wait blocks until the marker is gone or ctx ends.
func (l *Lock) Wait(ctx context.Context) error {
	dir := filepath.Dir(l.path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		// No directory means no marker.
		if _, ok, serr := l.Status(); serr == nil && !ok {
			return nil
		}
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	// Checked after Add so a removal between the two cannot be missed.
	if _, ok, err := l.Status(); err == nil && !ok {
		return nil
	}

	target := filepath.Clean(l.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if _, held, _ := l.Status(); !held {
					return nil
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			return fmt.Errorf("watching lock marker: %w", err)
		}
	}
}
