// Package watch pushes posts automatically when their content.adoc changes.
//
// The watcher:
//  1. Watches the posts directory and every post directory under it
//  2. Queues a post when its content.adoc is written, debouncing bursts
//  3. Pushes queued posts whose rendered content changed
//  4. Shuts down when its context is cancelled
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wpasc/wpasc/internal/store"
	wpsync "github.com/wpasc/wpasc/internal/sync"
)

// Pusher is the part of the sync engine the watcher drives.
type Pusher interface {
	Changed(ctx context.Context, id int) (bool, error)
	Push(ctx context.Context, id int, force bool) error
}

// Config holds configuration for the watcher.
type Config struct {
	// Debounce is how long a post must be quiet before it is pushed.
	// Editors often write a file several times in a row.
	Debounce time.Duration

	// Logger for watcher activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 500 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Watcher pushes changed posts of one blog.
type Watcher struct {
	pusher Pusher
	store  *store.Store
	config *Config

	watcher *fsnotify.Watcher
	queue   map[int]time.Time // post id -> last write
	queueMu sync.Mutex

	wg sync.WaitGroup
}

// New creates a watcher with the default configuration.
func New(pusher Pusher, contentStore *store.Store) (*Watcher, error) {
	return NewWithConfig(pusher, contentStore, DefaultConfig())
}

// NewWithConfig creates a watcher with custom configuration.
func NewWithConfig(pusher Pusher, contentStore *store.Store, config *Config) (*Watcher, error) {
	if pusher == nil {
		return nil, fmt.Errorf("pusher cannot be nil")
	}
	if contentStore == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		pusher:  pusher,
		store:   contentStore,
		config:  config,
		watcher: watcher,
		queue:   make(map[int]time.Time),
	}, nil
}

// Run watches until ctx is cancelled. Posts created while running are
// picked up when their directory appears.
func (w *Watcher) Run(ctx context.Context) error {
	postsDir := w.store.PostsDir()
	if err := w.store.EnsurePostsDir(); err != nil {
		return err
	}
	if err := w.watcher.Add(postsDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", postsDir, err)
	}

	ids, err := w.store.ListLocal()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := w.watcher.Add(w.store.PostDir(id)); err != nil {
			w.config.Logger.Printf("Warning: failed to watch post %d: %v", id, err)
		}
	}
	w.config.Logger.Printf("Watching %d posts in %s", len(ids), postsDir)

	w.wg.Add(2)
	go w.watchFileEvents(ctx)
	go w.processQueue(ctx)

	<-ctx.Done()
	w.config.Logger.Println("Shutdown signal received")
	return w.stop()
}

func (w *Watcher) stop() error {
	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	w.config.Logger.Println("Watcher stopped")
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (w *Watcher) watchFileEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event, time.Now())

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, at time.Time) {
	id, ok := w.store.IDFromPath(event.Name)
	if !ok {
		return
	}

	// A new post directory
	if filepath.Dir(event.Name) == w.store.PostsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.watcher.Add(event.Name); err != nil {
				w.config.Logger.Printf("Warning: failed to watch post %d: %v", id, err)
			}
			// content.adoc may have been written before the watch was added
			if w.store.HasContent(id) {
				w.enqueue(id, at)
			}
		}
		return
	}

	if filepath.Base(event.Name) != store.ContentFile {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	w.enqueue(id, at)
}

// enqueue records a write; later writes push the deadline back.
func (w *Watcher) enqueue(id int, at time.Time) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	w.queue[id] = at
}

// ready removes and returns, in ascending order, the ids that have been
// quiet for the debounce interval.
func (w *Watcher) ready(now time.Time) []int {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()

	var ids []int
	for id, queuedAt := range w.queue {
		if now.Sub(queuedAt) < w.config.Debounce {
			continue
		}
		ids = append(ids, id)
		delete(w.queue, id)
	}
	sort.Ints(ids)
	return ids
}

// processQueue pushes debounced posts.
func (w *Watcher) processQueue(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			for _, id := range w.ready(now) {
				w.sync(ctx, id)
			}
		}
	}
}

// sync pushes a post if its rendered content changed. Failures are logged;
// the next write retries.
func (w *Watcher) sync(ctx context.Context, id int) {
	changed, err := w.pusher.Changed(ctx, id)
	if err != nil {
		w.config.Logger.Printf("Warning: failed to check post %d: %v", id, err)
		return
	}
	if !changed {
		return
	}

	err = w.pusher.Push(ctx, id, false)
	switch {
	case err == nil:
		w.config.Logger.Printf("Pushed post %d", id)
	case wpsync.IsGuardRejection(err):
		w.config.Logger.Printf("Not pushing post %d: %v", id, err)
	default:
		w.config.Logger.Printf("Warning: failed to push post %d: %v", id, err)
	}
}
