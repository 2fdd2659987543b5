package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the catalog from path whenever the file changes, until ctx
// is done. A file that fails to parse leaves the previous data in place.
// onReload, if set, is called after each successful reload.
func (c *Catalog) Watch(ctx context.Context, path string, onReload func(*Data)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory so that editors that write via rename are seen
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
			} else {
				debounce.Reset(reloadDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			data, err := readFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Catalog reload failed, keeping previous data")
				continue
			}
			c.Replace(data)
			log.Info().
				Str("path", path).
				Int("medicines", len(data.Medicines)).
				Int("doctors", len(data.Doctors)).
				Int("hospitals", len(data.Hospitals)).
				Msg("Catalog reloaded")
			if onReload != nil {
				onReload(data)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Catalog watcher error")
		}
	}
}
