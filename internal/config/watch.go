package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/kuiperworks/kerf/pkg/logger"
)

// Watch monitors the file named by KERF_CONFIG and calls onChange with the
// freshly loaded Config each time the file is written. It blocks until ctx
// is canceled, so callers run it in its own goroutine.
//
// A failed reload (unreadable file, invalid YAML, validation error) is
// logged and the previous config stays active; onChange is not called.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		return fmt.Errorf("%w: no config file to watch", ErrInvalidConfig)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: watcher: %w", ErrLoadConfig, err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("%w: watch %s: %w", ErrLoadConfig, path, err)
	}

	log := logger.Get().Named("config")
	log.Info(ctx, "watching config file", logger.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so catch Create along with Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(ctx)
			if err != nil {
				log.Warn(ctx, "config reload failed, keeping previous config",
					logger.String("path", path),
					logger.Error(err),
				)
				continue
			}

			log.Info(ctx, "config reloaded", logger.String("path", path))
			onChange(cfg)

			// An atomic save may have replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "config watcher error", logger.Error(err))
		}
	}
}
