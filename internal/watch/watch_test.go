package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wpasc/wpasc/internal/store"
	wpsync "github.com/wpasc/wpasc/internal/sync"
)

// fakePusher records pushes. Posts listed in unchanged report no change.
type fakePusher struct {
	mu        sync.Mutex
	pushed    []int
	unchanged map[int]bool
	pushErr   error
}

func (p *fakePusher) Changed(ctx context.Context, id int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.unchanged[id], nil
}

func (p *fakePusher) Push(ctx context.Context, id int, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if force {
		return fmt.Errorf("watcher must not force")
	}
	p.pushed = append(p.pushed, id)
	return p.pushErr
}

func (p *fakePusher) pushes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.pushed...)
}

func newTestWatcher(t *testing.T, pusher Pusher, debounce time.Duration) (*Watcher, *store.Store) {
	t.Helper()

	st := store.NewOS(t.TempDir())
	w, err := NewWithConfig(pusher, st, &Config{
		Debounce: debounce,
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	return w, st
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, store.NewOS(t.TempDir())); err == nil {
		t.Error("expected error for nil pusher")
	}
	if _, err := New(&fakePusher{}, nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestHandle_QueuesContentWrites(t *testing.T) {
	w, st := newTestWatcher(t, &fakePusher{}, time.Second)
	defer w.watcher.Close()
	now := time.Now()

	events := []fsnotify.Event{
		{Name: st.ContentPath(7), Op: fsnotify.Write},
		{Name: st.ContentPath(8), Op: fsnotify.Create},
		{Name: st.MetaPath(9), Op: fsnotify.Write},
		{Name: st.ContentPath(10), Op: fsnotify.Chmod},
		{Name: filepath.Join(st.Root(), "asciidoc.toml"), Op: fsnotify.Write},
	}
	for _, event := range events {
		w.handle(event, now)
	}

	got := w.ready(now.Add(time.Second))
	if fmt.Sprint(got) != "[7 8]" {
		t.Errorf("expected [7 8] queued, got %v", got)
	}
}

func TestHandle_NewPostDir(t *testing.T) {
	w, st := newTestWatcher(t, &fakePusher{}, time.Second)
	defer w.watcher.Close()
	now := time.Now()

	if err := st.WriteContent(11, "= Early\n"); err != nil {
		t.Fatalf("WriteContent failed: %v", err)
	}
	if err := st.EnsurePostDir(12); err != nil {
		t.Fatalf("EnsurePostDir failed: %v", err)
	}

	w.handle(fsnotify.Event{Name: st.PostDir(11), Op: fsnotify.Create}, now)
	w.handle(fsnotify.Event{Name: st.PostDir(12), Op: fsnotify.Create}, now)

	got := w.ready(now.Add(time.Second))
	if fmt.Sprint(got) != "[11]" {
		t.Errorf("expected only [11] queued, got %v", got)
	}
}

func TestRun_CreatesPostsDir(t *testing.T) {
	w, st := newTestWatcher(t, &fakePusher{}, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Run failed: %v", err)
	}

	info, err := os.Stat(st.PostsDir())
	if err != nil {
		t.Fatalf("expected posts dir to exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected posts dir to be a directory")
	}
}

func TestReady_Debounce(t *testing.T) {
	w, _ := newTestWatcher(t, &fakePusher{}, 500*time.Millisecond)
	defer w.watcher.Close()
	start := time.Now()

	w.enqueue(3, start)
	w.enqueue(3, start.Add(400*time.Millisecond))

	if got := w.ready(start.Add(600 * time.Millisecond)); len(got) != 0 {
		t.Errorf("expected later write to delay push, got %v", got)
	}
	if got := w.ready(start.Add(900 * time.Millisecond)); fmt.Sprint(got) != "[3]" {
		t.Errorf("expected [3], got %v", got)
	}
	if got := w.ready(start.Add(2 * time.Second)); len(got) != 0 {
		t.Errorf("expected queue to be drained, got %v", got)
	}
}

func TestSync_SkipsUnchanged(t *testing.T) {
	pusher := &fakePusher{unchanged: map[int]bool{4: true}}
	w, _ := newTestWatcher(t, pusher, time.Second)
	defer w.watcher.Close()
	ctx := context.Background()

	w.sync(ctx, 4)
	w.sync(ctx, 5)

	if got := pusher.pushes(); fmt.Sprint(got) != "[5]" {
		t.Errorf("expected only post 5 pushed, got %v", got)
	}
}

func TestSync_GuardRejectionIsNotFatal(t *testing.T) {
	pusher := &fakePusher{pushErr: fmt.Errorf("post 1: %w", wpsync.ErrWontClobber)}
	w, _ := newTestWatcher(t, pusher, time.Second)
	defer w.watcher.Close()

	w.sync(context.Background(), 1)
	w.sync(context.Background(), 2)

	if got := pusher.pushes(); len(got) != 2 {
		t.Errorf("expected both posts attempted, got %v", got)
	}
}

func TestRun_PushesOnWrite(t *testing.T) {
	pusher := &fakePusher{}
	w, st := newTestWatcher(t, pusher, 20*time.Millisecond)

	if err := os.MkdirAll(st.PostDir(42), 0755); err != nil {
		t.Fatalf("failed to create post dir: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register its directories
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(st.ContentPath(42), []byte("= Hello\n"), 0644); err != nil {
		t.Fatalf("failed to write content: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(pusher.pushes()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Run failed: %v", err)
	}

	if got := pusher.pushes(); len(got) == 0 || got[0] != 42 {
		t.Errorf("expected post 42 pushed, got %v", got)
	}
}
