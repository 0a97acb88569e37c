package category

// The watcher hot-reloads the keyword table when its yaml file is written,
// so the taxonomy can be tuned without restarting the server.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// flushDuration sets the time given to wait for multiple editor writes.
const flushDuration time.Duration = 25 * time.Millisecond

// Watcher reloads a file-backed Classifier on writes to its yaml file.
type Watcher struct {
	classifier *Classifier
	watcher    *fsnotify.Watcher
	dir        string
	base       string
	log        *slog.Logger
}

// NewWatcher registers a Watcher over the Classifier's backing file. The
// watch is registered on the containing directory since many editors replace
// rather than write files.
func NewWatcher(classifier *Classifier, logger *slog.Logger) (*Watcher, error) {

	if classifier.filePath == "" {
		return nil, fmt.Errorf("classifier has no backing file to watch")
	}
	dir := filepath.Dir(filepath.Clean(classifier.filePath))
	check, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dir %q not found: %w", dir, err)
	}
	if !check.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	w := &Watcher{
		classifier: classifier,
		dir:        dir,
		base:       filepath.Base(classifier.filePath),
		log:        logger,
	}
	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify new watcher error: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("fsnotify add error for dir %q: %w", dir, err)
	}
	return w, nil
}

// Watch blocks until the context is done, reloading the classifier on each
// (debounced) write to its file. A reload failure is logged and the old
// table kept; watching continues.
func (w *Watcher) Watch(ctx context.Context) error {

	eventChan := make(chan bool)
	g, ctx := errgroup.WithContext(ctx)

	// This goroutine watches for *fsnotify.Watcher events.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return errors.New("unexpected close from watcher.Errors")
				}
				return fmt.Errorf("unexpected notify error: %w", err)
			case e, ok := <-w.watcher.Events:
				if !ok {
					return errors.New("unexpected close from watcher.Events")
				}
				if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
					continue
				}
				if filepath.Base(e.Name) != w.base {
					continue
				}
				// Guarded send: the flush goroutine may already have
				// exited on cancellation, leaving no receiver.
				select {
				case eventChan <- true:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	// Buffer double writes by editors like vim before reloading.
	g.Go(func() error {
		flush := false
		timer := time.NewTicker(flushDuration)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, ok := <-eventChan:
				if !ok {
					return nil
				}
				flush = true
				timer.Reset(flushDuration)
			case <-timer.C:
				if !flush {
					continue
				}
				flush = false
				if err := w.classifier.Reload(); err != nil {
					w.log.Error("categories reload failed, keeping old table", "error", err)
					continue
				}
				w.log.Info("categories reloaded", "file", w.base)
			}
		}
	})

	err := g.Wait()
	close(eventChan)
	_ = w.watcher.Close()
	return err
}
