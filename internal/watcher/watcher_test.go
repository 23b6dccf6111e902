package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestEventTypeOf(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create))
	assert.Equal(t, EventTypeModified, eventTypeOf(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventTypeOf(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventTypeOf(fsnotify.Rename))
	assert.Equal(t, EventTypeModified, eventTypeOf(fsnotify.Chmod))
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create|fsnotify.Write))
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherFilters(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(SourceFilter)
	watcher.AddFilter(NoHiddenFilter)
	assert.Len(t, watcher.filters, 2)

	assert.True(t, watcher.accepts("go/loops.json"))
	assert.False(t, watcher.accepts("go/.loops.json.swp"))
	assert.False(t, watcher.accepts("go/main.go"))
}

func TestFileWatcherStopTwice(t *testing.T) {
	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)

	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NoError(t, watcher.AddPath(t.TempDir()))
	assert.Error(t, watcher.AddPath("../outside"))
	assert.Error(t, watcher.AddPath(""))
}

func TestFileWatcherStartStop(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	tempDir := t.TempDir()
	require.NoError(t, watcher.AddRecursive(tempDir))
	watcher.AddFilter(SourceFilter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received []ChangeEvent
	)
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		received = append(received, events...)
		mu.Unlock()
		return nil
	})

	require.NoError(t, watcher.Start(ctx))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "ignored.go"), []byte("package x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "page.json"), []byte("{}"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, e := range received {
		assert.Equal(t, "page.json", filepath.Base(e.Path))
	}
	mu.Unlock()

	cancel()
	assert.NoError(t, watcher.Stop())
}

func TestAddRecursive_SkipsHiddenAndExcluded(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"go", "go/nested", ".git/objects", "output"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.ExcludeDir(filepath.Join(root, "output"))
	require.NoError(t, watcher.AddRecursive(root))

	watched := watcher.watcher.WatchList()
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "go"),
		filepath.Join(root, "go", "nested"),
	}, watched)

	assert.False(t, watcher.accepts(filepath.Join(root, "output", "index.html")))
	assert.True(t, watcher.accepts(filepath.Join(root, "go", "loops.json")))
}

func TestDebouncer(t *testing.T) {
	debouncer := newDebouncer(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "a.json", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "b.json", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "a.json", Type: EventTypeModified}

	select {
	case batch := <-debouncer.output:
		assert.Equal(t, []ChangeEvent{
			{Path: "a.json", Type: EventTypeModified},
			{Path: "b.json", Type: EventTypeModified},
		}, batch)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestDebouncerFlushEmpty(t *testing.T) {
	debouncer := newDebouncer(time.Second)
	debouncer.flush()

	select {
	case <-debouncer.output:
		t.Fatal("empty flush emitted a batch")
	default:
	}
}

func TestFilters(t *testing.T) {
	testCases := []struct {
		name     string
		filter   FileFilter
		path     string
		expected bool
	}{
		{"source json", SourceFilter, "go/loops.json", true},
		{"source yaml", SourceFilter, "make.YML", true},
		{"source markdown", SourceFilter, "home.md", true},
		{"source go", SourceFilter, "main.go", false},
		{"hidden", NoHiddenFilter, "go/.config.json", false},
		{"backup", NoHiddenFilter, "go/config.json~", false},
		{"visible", NoHiddenFilter, "go/config.json", true},
		{"git", NoGitFilter, "site/.git/HEAD", false},
		{"git root", NoGitFilter, ".git/HEAD", false},
		{"not git", NoGitFilter, "site/go/HEAD.json", true},
		{"excluded", ExcludeDirFilter("out"), "out/index.html", false},
		{"excluded dir itself", ExcludeDirFilter("out"), "out", false},
		{"sibling prefix", ExcludeDirFilter("out"), "output/index.html", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.filter(tc.path))
		})
	}
}
