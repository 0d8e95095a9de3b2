package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	appanalysis "github.com/bryanwahyu/imagesense/internal/application/analysis"
)

// DefaultSettle is how long a file must stay unchanged before it is picked up.
const DefaultSettle = 750 * time.Millisecond

// Processor runs a batch of dropped paths. A batch that has started is not
// cut short by ctx; cancellation only stops the watcher between batches.
type Processor interface {
	ProcessBatchUntilDone(ctx context.Context, paths []string) (appanalysis.BatchSummary, error)
}

// Watcher monitors an inbox directory and turns every image that lands in it
// into a batch of one.
type Watcher struct {
	Dir       string
	Processor Processor
	Settle    time.Duration
}

func New(dir string, p Processor) *Watcher {
	return &Watcher{Dir: dir, Processor: p, Settle: DefaultSettle}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create inbox %s: %w", w.Dir, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	log.Printf("watching %s for images", w.Dir)

	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	tick := time.NewTicker(settle / 3)
	defer tick.Stop()

	// path -> last time we saw it change
	pending := map[string]time.Time{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if appanalysis.IsImage(evt.Name) {
				pending[evt.Name] = time.Now()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher error: %v", err)
		case now := <-tick.C:
			for _, path := range ready(pending, now, settle) {
				if ctx.Err() != nil {
					return nil
				}
				delete(pending, path)
				w.process(ctx, path)
			}
		}
	}
}

// Backfill processes images already sitting in the inbox as one batch.
func (w *Watcher) Backfill(ctx context.Context) error {
	entries, err := filepath.Glob(filepath.Join(w.Dir, "*"))
	if err != nil {
		return err
	}
	images := appanalysis.FilterImages(entries)
	if len(images) == 0 {
		return nil
	}
	_, err = w.Processor.ProcessBatchUntilDone(ctx, images)
	return err
}

func (w *Watcher) process(ctx context.Context, path string) {
	// Rename juga dikirim untuk path lama; file yang sudah hilang dilewati
	if _, err := os.Stat(path); err != nil {
		return
	}
	if _, err := w.Processor.ProcessBatchUntilDone(ctx, []string{path}); err != nil {
		log.Printf("inbox batch for %s: %v", filepath.Base(path), err)
	}
}

// ready returns the settled paths in name order.
func ready(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var out []string
	for p, seen := range pending {
		if now.Sub(seen) >= settle {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
