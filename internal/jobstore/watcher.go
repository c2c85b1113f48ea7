package jobstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reports changes to the store file made by any writer, including
// the external scheduler. Atomic writes replace the file, so the parent
// directory is watched and events are filtered by file name.
type Watcher struct {
	path     string
	debounce time.Duration
	log      logrus.FieldLogger
	onChange func()
}

// NewWatcher creates a watcher calling onChange at most once per debounce
// window after the file at path is written, created, renamed or removed.
func NewWatcher(path string, debounce time.Duration, log logrus.FieldLogger, onChange func()) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		log:      log,
		onChange: onChange,
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.log.WithField("path", w.path).Info("Watching job store")

	var (
		timer  *time.Timer
		fire   <-chan time.Time
		target = filepath.Base(w.path)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.onChange()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Job store watcher error")
		}
	}
}
