package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads cfg in place whenever the file at path changes on disk:
// an in-process re-merge so subsystems reading via accessor methods always
// see the latest view on their next call. Editors often replace a file
// rather than write it in place (rename-over-write), so both Write and
// Create/Rename events on the
// file's directory are treated as "maybe changed" and re-Load+compare by
// Hash before swapping — a no-op save never triggers a reload storm.
//
// Watch blocks until stop is closed or the watcher errors out; callers
// should run it in its own goroutine.
func Watch(path string, cfg *Config, stop <-chan struct{}, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	lastHash := cfg.Hash()
	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !(ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0) {
				continue
			}

			reloaded, err := Load(path)
			if err != nil {
				log.Warn("config.watch.reload_failed", "path", path, "error", err)
				continue
			}
			if reloaded.Hash() == lastHash {
				continue
			}
			cfg.ReplaceFrom(reloaded)
			lastHash = reloaded.Hash()
			log.Info("config.watch.reloaded", "path", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config.watch.error", "error", err)
		}
	}
}
