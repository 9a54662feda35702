package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32

	// Trigger rapidly 10 times
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for debounce to complete
	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_LastTriggerWins(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var got atomic.Int32
	d.Trigger(func() { got.Store(1) })
	d.Trigger(func() { got.Store(2) })

	time.Sleep(100 * time.Millisecond)
	if v := got.Load(); v != 2 {
		t.Errorf("expected the last func to run, got %d", v)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool

	d.Trigger(func() {
		called.Store(true)
	})

	// Cancel before debounce completes
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func TestNewWatcher_RequiresPaths(t *testing.T) {
	if _, err := NewWatcher(nil); !errors.Is(err, ErrNoPaths) {
		t.Errorf("expected ErrNoPaths, got %v", err)
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	tmpFile := writeTemp(t, "bugs.json", "[]")

	var changed atomic.Bool
	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Give watcher time to initialize
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(tmpFile, []byte(`[{"id":1}]`), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !changed.Load() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !changed.Load() {
		t.Errorf("expected change to be detected (mode %s)", w.Mode())
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	tmpFile := writeTemp(t, "bugs.json", "[]")
	sibling := filepath.Join(filepath.Dir(tmpFile), "other.json")

	var changes atomic.Int32
	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(20*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.Mode() != ModeFsnotify {
		t.Skipf("fsnotify unavailable, mode %s", w.Mode())
	}

	if err := os.WriteFile(sibling, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if n := changes.Load(); n != 0 {
		t.Errorf("expected sibling writes to be ignored, got %d changes", n)
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	tmpFile := writeTemp(t, "bugs.jsonl", "initial")

	var changed atomic.Bool
	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected watcher to be in polling mode")
	}

	time.Sleep(60 * time.Millisecond)
	// A size change is detected even when the mtime granularity is coarse
	if err := os.WriteFile(tmpFile, []byte("modified via polling"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !changed.Load() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if !changed.Load() {
		t.Error("expected change to be detected via polling")
	}
}

func TestWatcher_PollingWatchesEveryPath(t *testing.T) {
	a := writeTemp(t, "a.json", "[]")
	b := writeTemp(t, "b.yaml", "[]")

	w, err := NewWatcher([]string{a, b, a},
		WithDebounceDuration(20*time.Millisecond),
		WithPollInterval(30*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(w.Paths()); got != 2 {
		t.Fatalf("expected duplicate paths to collapse, got %d", got)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(40 * time.Millisecond)
	if err := os.WriteFile(b, []byte("- id: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changed():
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for change to the second path")
	}
}

func TestWatcher_ChangedChannel(t *testing.T) {
	tmpFile := writeTemp(t, "bugs.jsonl", "initial")

	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(60 * time.Millisecond)
		_ = os.WriteFile(tmpFile, []byte("new content"), 0644)
	}()
	defer wg.Wait()

	select {
	case <-w.Changed():
		// Success
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for change notification")
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv(ForcePollEnv, "true")

	w, err := NewWatcher([]string{writeTemp(t, "bugs.json", "[]")},
		WithDebounceDuration(10*time.Millisecond),
		WithPollInterval(25*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatalf("expected watcher to be in polling mode when %s is set", ForcePollEnv)
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	tmpFile := writeTemp(t, "bugs.jsonl", "initial")

	var (
		errMu sync.Mutex
		errs  []error
	)
	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			errMu.Lock()
			errs = append(errs, err)
			errMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(60 * time.Millisecond)
	if err := os.Remove(tmpFile); err != nil {
		t.Fatal(err)
	}
	// Several poll ticks; the removal is reported once
	time.Sleep(300 * time.Millisecond)

	errMu.Lock()
	defer errMu.Unlock()
	if len(errs) != 1 || !errors.Is(errs[0], ErrFileRemoved) {
		t.Errorf("expected a single ErrFileRemoved, got %v", errs)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher([]string{writeTemp(t, "bugs.json", "[]")})
	if err != nil {
		t.Fatal(err)
	}

	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if w.Mode() != ModeIdle {
		t.Errorf("expected idle mode before Start, got %s", w.Mode())
	}

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("watcher should be started after Start()")
	}

	// Double start should error
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should not be started after Stop()")
	}

	// Double stop should be safe
	w.Stop()

	// Restart after stop
	if err := w.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	w.Stop()
}

func TestWatcher_MissingFileIsFine(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "later.json")
	w, err := NewWatcher([]string{missing},
		WithDebounceDuration(20*time.Millisecond),
		WithPollInterval(30*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("expected missing file to be accepted, got %v", err)
	}
	defer w.Stop()

	time.Sleep(40 * time.Millisecond)
	if err := os.WriteFile(missing, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.Changed():
	case <-time.After(2 * time.Second):
		t.Error("expected creation to count as a change")
	}
}

func TestWatcher_Paths(t *testing.T) {
	tmpFile := writeTemp(t, "bugs.json", "[]")

	w, err := NewWatcher([]string{tmpFile})
	if err != nil {
		t.Fatal(err)
	}

	absPath, _ := filepath.Abs(tmpFile)
	if got := w.Paths(); len(got) != 1 || got[0] != absPath {
		t.Errorf("expected paths [%s], got %v", absPath, got)
	}
}

func TestWatcher_PollInterval(t *testing.T) {
	customInterval := 500 * time.Millisecond
	w, err := NewWatcher([]string{writeTemp(t, "bugs.json", "[]")}, WithPollInterval(customInterval))
	if err != nil {
		t.Fatal(err)
	}
	if got := w.PollInterval(); got != customInterval {
		t.Errorf("expected poll interval %v, got %v", customInterval, got)
	}

	w, err = NewWatcher([]string{writeTemp(t, "bugs.json", "[]")}, WithPollInterval(0))
	if err != nil {
		t.Fatal(err)
	}
	if got := w.PollInterval(); got != DefaultPollInterval {
		t.Errorf("expected non-positive interval to keep the default, got %v", got)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"y", true},
		{"on", true},
		{" on ", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
		{"invalid", false},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("TEST_ENV_BOOL", tc.value)
			if got := envBool("TEST_ENV_BOOL"); got != tc.expected {
				t.Errorf("envBool(%q) = %v, expected %v", tc.value, got, tc.expected)
			}
		})
	}
}
