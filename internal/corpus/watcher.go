package corpus

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

// Watcher keeps the index current while a session is running: document
// edits are debounced and reindexed in the background.
type Watcher struct {
	root         string
	walker       *Walker
	index        *Index
	watcher      *fsnotify.Watcher
	debounceTime time.Duration

	mu      sync.Mutex
	pending map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher that feeds changes into the given index.
func NewWatcher(root string, walker *Walker, index *Index) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:         root,
		walker:       walker,
		index:        index,
		watcher:      fsw,
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start registers every corpus directory with fsnotify and begins the event
// and debounce loops.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		if w.walker.Ignores(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				log.Printf("corpus: failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk corpus: %w", err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop shuts the watcher down and waits for its loops to exit.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
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
			log.Printf("corpus: watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	if w.walker.Ignores(relPath) {
		return
	}

	// New directories get watched too.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				log.Printf("corpus: failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !IsDocument(event.Name) && !event.Has(fsnotify.Remove) {
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		w.pending[relPath] = true
		w.mu.Unlock()
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

// flushPending reindexes every document touched since the last tick.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	for _, relPath := range paths {
		full := filepath.Join(w.root, relPath)
		if _, err := os.Stat(full); err != nil {
			if err := w.index.Delete(relPath); err != nil {
				log.Printf("corpus: failed to drop %s from index: %v", relPath, err)
			}
			continue
		}
		doc, err := w.walker.describe(full, relPath)
		if err != nil {
			continue
		}
		if err := w.index.IndexDocument(*doc); err != nil {
			log.Printf("corpus: failed to reindex %s: %v", relPath, err)
		}
	}
}
