package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Logger defines the logging interface needed by the config watcher.
type Logger interface {
	Infof(string, ...any)
	Warnf(string, ...any)
	Errorf(string, ...any)
}

const reloadDebounce = 500 * time.Millisecond

// Watch watches a single config file for changes and reloads it into the
// Store until ctx is cancelled. On a failed reload the old config is kept.
// Only rules take effect live; edits to other sections are stored but logged
// as needing a restart.
//
// The parent directory is watched rather than the file itself so editors that
// replace the file through a rename keep triggering reloads.
func Watch(ctx context.Context, path string, store *Store, logger Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch file: %w", err)
	}

	go func() {
		defer watcher.Close()

		// Reload fires once the file has been quiet for reloadDebounce.
		timer := time.NewTimer(reloadDebounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logger.Infof("config file change detected: %s", ev.Name)
				timer.Reset(reloadDebounce)
			case <-timer.C:
				cfg, err := Load(abs)
				if err != nil {
					logger.Errorf("failed to reload config: %v", err)
					continue
				}
				stale := RestartRequired(store.Current(), cfg)
				store.Update(cfg)
				if len(stale) > 0 {
					logger.Warnf("config reloaded; changes to %s need a restart", strings.Join(stale, ", "))
					continue
				}
				logger.Infof("config reloaded successfully")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Errorf("config watcher error: %v", err)
			}
		}
	}()

	return nil
}
