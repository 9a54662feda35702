// Package watcher reports changes to the bug data files so the dashboard can
// reload. It uses fsnotify on the files' directories and falls back to
// polling when fsnotify is unavailable or BUGDASH_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vanderheijden86/bugdash/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// ForcePollEnv forces polling mode when set to a truthy value.
const ForcePollEnv = "BUGDASH_FORCE_POLL"

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("no paths to watch")
)

// Mode is how changes are detected.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeFsnotify Mode = "fsnotify"
	ModePolling  Mode = "polling"
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets the callback invoked when a file changes.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// WithLogger sets the logger for mode selection and watch errors.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

type fileState struct {
	mtime time.Time
	size  int64
}

// Watcher monitors a set of files for changes.
type Watcher struct {
	paths            []string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	logger           *zap.Logger

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	mode      Mode
	states    map[string]fileState

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher creates a watcher for paths. Paths are made absolute and
// de-duplicated.
func NewWatcher(paths []string, opts ...WatcherOption) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	seen := make(map[string]bool, len(paths))
	var abs []string
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		if !seen[a] {
			seen[a] = true
			abs = append(abs, a)
		}
	}

	w := &Watcher{
		paths:            abs,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		logger:           debug.L(),
		mode:             ModeIdle,
		changeCh:         make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.debouncer = NewDebouncer(w.debounceDuration)

	return w, nil
}

// Start begins watching. It returns ErrPermission when a file exists but
// cannot be read; missing files are fine and are picked up once created.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.states = make(map[string]fileState, len(w.paths))
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsPermission(err) {
				return fmt.Errorf("%w: %s", ErrPermission, p)
			}
			w.states[p] = fileState{}
			continue
		}
		w.states[p] = fileState{mtime: info.ModTime(), size: info.Size()}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	forcePoll := w.forcePoll || envBool(ForcePollEnv)
	w.mode = ModePolling
	if !forcePoll {
		if fsw, err := w.newFsnotify(); err != nil {
			w.logger.Warn("fsnotify unavailable; polling for changes",
				zap.Error(err), zap.Duration("interval", w.pollInterval))
		} else {
			w.fsWatcher = fsw
			w.mode = ModeFsnotify
		}
	}

	w.wg.Add(1)
	if w.mode == ModeFsnotify {
		go w.watchFsnotify(ctx, w.fsWatcher)
	} else {
		go w.watchPolling(ctx)
	}

	w.logger.Debug("watching data files",
		zap.Strings("paths", w.paths), zap.String("mode", string(w.mode)))
	w.started = true
	return nil
}

// newFsnotify watches the directory of every path, which is more reliable
// than watching the files across atomic rename-over saves.
func (w *Watcher) newFsnotify() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return fsw, nil
}

// Stop stops watching and waits for the watch goroutine to exit.
// The changeCh channel is not closed so a reader blocked on Changed()
// simply never fires again.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
	w.mode = ModeIdle
	w.mu.Unlock()

	w.wg.Wait()
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	return w.Mode() == ModePolling
}

// Mode returns the active detection mode.
func (w *Watcher) Mode() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when a file changes.
// This is an alternative to using the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Paths returns the watched absolute paths.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) watched(name string) bool {
	name = filepath.Clean(name)
	for _, p := range w.paths {
		if p == name {
			return true
		}
	}
	return false
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.watched(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0:
				w.reportError(fmt.Errorf("%w: %s", ErrFileRemoved, event.Name))

			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.pollOnce() {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

// pollOnce stats every path and reports whether any changed.
func (w *Watcher) pollOnce() bool {
	changed := false
	for _, p := range w.paths {
		info, err := os.Stat(p)

		w.mu.Lock()
		prev := w.states[p]
		if err != nil {
			// Only report a removal once, and only if the file existed
			if !prev.mtime.IsZero() {
				w.states[p] = fileState{}
			}
			w.mu.Unlock()

			switch {
			case os.IsNotExist(err):
				if !prev.mtime.IsZero() {
					w.reportError(fmt.Errorf("%w: %s", ErrFileRemoved, p))
				}
			case os.IsPermission(err):
				w.reportError(fmt.Errorf("%w: %s", ErrPermission, p))
			default:
				w.reportError(err)
			}
			continue
		}

		if !info.ModTime().Equal(prev.mtime) || info.Size() != prev.size {
			w.states[p] = fileState{mtime: info.ModTime(), size: info.Size()}
			changed = true
		}
		w.mu.Unlock()
	}
	return changed
}

func (w *Watcher) reportError(err error) {
	w.logger.Warn("watching data files", zap.Error(err))
	w.onError(err)
}

// notifyChange invokes the onChange callback and signals the change channel.
func (w *Watcher) notifyChange() {
	if !w.IsStarted() {
		return
	}

	w.onChange()

	// Non-blocking send to change channel
	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
