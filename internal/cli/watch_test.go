package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: "dumps/Core-1.0.yaml", Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: "gir/Core-1.0.gir", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "dumps/Ext-2.0.yaml", Op: fsnotify.Remove}, true},
		{"rename", fsnotify.Event{Name: "gistub.yaml", Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: "gistub.yaml", Op: fsnotify.Chmod}, false},
		{"backup", fsnotify.Event{Name: "gistub.yaml~", Op: fsnotify.Write}, false},
		{"swap", fsnotify.Event{Name: ".gistub.yaml.swp", Op: fsnotify.Write}, false},
		{"emacs lock", fsnotify.Event{Name: ".#gistub.yaml", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev))
		})
	}
}

func TestNewWatcher_SkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	w, err := newWatcher([]string{dir, dir, filepath.Join(dir, "nope"), ""}, 10*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.fs.Close()
	assert.Equal(t, []string{dir}, w.fs.WatchList())
}

func TestWatcher_RunsJobAfterChange(t *testing.T) {
	dir := t.TempDir()
	w, err := newWatcher([]string{dir}, 20*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, func() error {
			calls.Add(1)
			return nil
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Core-1.0.yaml"), []byte("namespace: Core\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
