// Package watch re-runs a job whenever a source file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/menta2k/sprite-rotator/internal/logger"
)

// DefaultDebounce collapses the burst of events editors emit on save
const DefaultDebounce = 200 * time.Millisecond

// Run calls fn every time the file at path is written or replaced, until ctx
// is done. The parent directory is watched rather than the file itself so
// that atomic saves (write to temp, rename over) are seen. Errors returned by
// fn are logged and do not stop the watch.
func Run(ctx context.Context, path string, debounce time.Duration, fn func() error, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher has failed: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log.Info().Str("file", abs).Msg("watching for changes")

	// a stopped timer whose channel is drained
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("the watch has ended")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Msg("source changed")
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		case <-timer.C:
			if err := fn(); err != nil {
				log.Error().Err(err).Str("file", abs).Msg("rerun failed")
			}
		}
	}
}
