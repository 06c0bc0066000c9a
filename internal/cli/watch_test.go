package cli

import (
	"context"
	stdio "io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

func TestDebounce(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan error)
	go func() {
		match := func(ev fsnotify.Event) bool { return ev.Name == "companies.csv" }
		done <- debounce(ctx, events, errs, 30*time.Millisecond, match, log.New(stdio.Discard), func() { calls.Add(1) })
	}()

	for range 5 {
		events <- fsnotify.Event{Name: "companies.csv", Op: fsnotify.Write}
	}
	events <- fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}
	errs <- os.ErrPermission
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("burst triggered %d rebuilds, want 1", got)
	}

	events <- fsnotify.Event{Name: "companies.csv", Op: fsnotify.Create}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Errorf("second change: %d rebuilds, want 2", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("debounce() = %v, want nil after cancel", err)
	}
}

func TestDebounceClosedEvents(t *testing.T) {
	events := make(chan fsnotify.Event)
	close(events)
	err := debounce(context.Background(), events, nil, time.Millisecond,
		func(fsnotify.Event) bool { return true }, log.New(stdio.Discard), func() {})
	if err != nil {
		t.Errorf("debounce() = %v", err)
	}
}

func TestWatchTargets(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "companies.csv")
	logos := filepath.Join(dir, "logos")

	match, dirs, err := watchTargets(input, logos)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 2 || dirs[0] != dir || dirs[1] != logos {
		t.Errorf("dirs = %v", dirs)
	}

	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: input, Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: input, Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: input, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: filepath.Join(dir, "other.csv"), Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: filepath.Join(logos, "acme.png"), Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: filepath.Join(logos, "README.md"), Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		if got := match(tt.ev); got != tt.want {
			t.Errorf("match(%s %s) = %v, want %v", tt.ev.Op, filepath.Base(tt.ev.Name), got, tt.want)
		}
	}
}
