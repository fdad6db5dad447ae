package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reloads the config file whenever it is written or replaced and
// passes every valid result to onChange. Invalid files are logged and
// skipped so a half-saved edit never reaches the running app. The parent
// directory is watched because editors commonly save via rename.
//
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, logger zerolog.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("config reload failed")
				continue
			}
			if err := cfg.Validate(); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("config reload rejected")
				continue
			}
			logger.Debug().Str("path", path).Msg("config reloaded")
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}
