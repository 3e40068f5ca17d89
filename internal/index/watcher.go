package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the index fresh by re-indexing files as they change.
// Events are debounced so a burst of writes becomes one update.
type Watcher struct {
	root    string
	index   *Index
	watcher *fsnotify.Watcher

	debounce time.Duration
	mu       sync.Mutex
	pending  map[string]fsnotify.Op

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher feeding the given index.
func NewWatcher(root string, ix *Index) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:     root,
		index:    ix,
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]fsnotify.Op),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers every non-ignored directory and begins processing
// events.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		if rel != "." && w.index.walker.Ignored(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("failed to watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register watch directories: %w", err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.flushLoop()
	return nil
}

// Stop shuts the watcher down and waits for its goroutines.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || w.index.walker.Ignored(rel) {
		return
	}

	// New directories must be registered to see their contents.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				log.Printf("failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if DetectLang(rel) == "" {
		return
	}

	w.mu.Lock()
	w.pending[rel] |= event.Op
	w.mu.Unlock()
}

func (w *Watcher) flushLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	for rel, op := range batch {
		var err error
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			err = w.index.Remove(rel)
		} else {
			err = w.index.Update(rel)
		}
		if err != nil {
			log.Printf("failed to refresh %s in index: %v", rel, err)
		}
	}
	log.Printf("refreshed %d files in search index", len(batch))
}
