package category

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watcherYAML = `
fallback:
  name: Uncategorized
  icon: DollarSign
  color: bg-gray-500
categories:
  - name: Coffee
    icon: Coffee
    color: bg-red-500
    keywords: [%s]
`

func writeCategoriesFile(t *testing.T, filePath, keyword string) {
	t.Helper()
	contents := fmt.Sprintf(watcherYAML, keyword)
	if err := os.WriteFile(filePath, []byte(contents), 0o644); err != nil {
		t.Fatalf("could not write categories file: %v", err)
	}
}

// The watcher must pick up a rewrite of the backing file, and Watch must
// return promptly on cancellation even while file events keep arriving.
func TestWatcherReloadAndCancel(t *testing.T) {

	dir := t.TempDir()
	filePath := filepath.Join(dir, "categories.yaml")
	writeCategoriesFile(t, filePath, "espresso")

	c, err := NewClassifierFromFile(filePath)
	if err != nil {
		t.Fatalf("unexpected classifier error: %v", err)
	}
	w, err := NewWatcher(c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("unexpected watcher error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx)
	}()

	writeCategoriesFile(t, filePath, "ristretto")

	deadline := time.Now().Add(3 * time.Second)
	for c.Categorize("Ristretto Bar").Name != "Coffee" {
		if time.Now().After(deadline) {
			t.Fatal("classifier was not reloaded after file rewrite")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Cancel in a burst of writes so a pending event send has nowhere to
	// go but the context branch.
	for i := 0; i < 5; i++ {
		writeCategoriesFile(t, filePath, "lungo")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not return after cancellation")
	}
}

func TestNewWatcherNoBackingFile(t *testing.T) {

	c, err := NewClassifier()
	if err != nil {
		t.Fatalf("unexpected classifier error: %v", err)
	}
	if _, err := NewWatcher(c, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected error for a classifier without a backing file")
	}
}
