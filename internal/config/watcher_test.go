package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/confab/internal/config"
)

const (
	watcherStrictYAML  = "search:\n  strategy: strict\n"
	watcherSmartYAML   = "search:\n  strategy: smart\n  errors: 2\n"
	watcherInvalidYAML = "search:\n  strategy: psychic\n"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

// bump moves the file's mtime forward so the poller notices a rewrite that
// landed within the filesystem's timestamp granularity.
func bump(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "confab.yaml")
	writeFile(t, path, watcherStrictYAML)

	w, err := config.NewWatcher(path, nil, config.WithInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()
	if got := w.Current().Search.Strategy; got != "strict" {
		t.Errorf("Current().Search.Strategy = %q, want strict", got)
	}
}

func TestWatcher_InitialLoadInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "confab.yaml")
	writeFile(t, path, watcherInvalidYAML)

	if _, err := config.NewWatcher(path, nil); err == nil {
		t.Fatal("expected error for invalid initial config")
	}
}

func TestWatcher_ReloadsAndSkipsInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "confab.yaml")
	writeFile(t, path, watcherStrictYAML)

	var mu sync.Mutex
	var diffs []config.ConfigDiff
	changed := make(chan struct{}, 4)
	w, err := config.NewWatcher(path, func(prev, next *config.Config) {
		mu.Lock()
		diffs = append(diffs, config.Diff(prev, next))
		mu.Unlock()
		changed <- struct{}{}
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeFile(t, path, watcherInvalidYAML)
	bump(t, path)
	time.Sleep(100 * time.Millisecond)
	if got := w.Current().Search.Strategy; got != "strict" {
		t.Fatalf("invalid edit replaced config: strategy = %q", got)
	}

	writeFile(t, path, watcherSmartYAML)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange not called after valid edit")
	}

	if got := w.Current().Search.Strategy; got != "smart" {
		t.Errorf("Current().Search.Strategy = %q, want smart", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(diffs) != 1 || !diffs[0].SearchChanged || diffs[0].Search.Errors != 2 {
		t.Errorf("diffs = %+v", diffs)
	}
}

func TestWatcher_ReloadOnDemand(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "confab.yaml")
	writeFile(t, path, watcherStrictYAML)

	var calls int
	w, err := config.NewWatcher(path, func(prev, next *config.Config) {
		calls++
		if prev.Search.Strategy != "strict" || next.Search.Strategy != "smart" {
			t.Errorf("onChange(%q, %q)", prev.Search.Strategy, next.Search.Strategy)
		}
	}, config.WithInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if changed, err := w.Reload(); err != nil || changed {
		t.Fatalf("Reload of unchanged file = (%v, %v), want (false, nil)", changed, err)
	}

	writeFile(t, path, watcherInvalidYAML)
	if _, err := w.Reload(); err == nil {
		t.Fatal("expected error reloading invalid file")
	}
	if got := w.Current().Search.Strategy; got != "strict" {
		t.Fatalf("invalid reload replaced config: strategy = %q", got)
	}

	writeFile(t, path, watcherSmartYAML)
	changed, err := w.Reload()
	if err != nil || !changed {
		t.Fatalf("Reload = (%v, %v), want (true, nil)", changed, err)
	}
	if calls != 1 {
		t.Errorf("onChange called %d times, want 1", calls)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "confab.yaml")
	writeFile(t, path, watcherStrictYAML)

	w, err := config.NewWatcher(path, nil, config.WithInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()
}
