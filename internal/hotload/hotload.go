// Package hotload reloads data files when they change on disk.
//
// Directories are watched rather than files so editors that save by
// rename-and-replace are still seen. A watched file that is a symlink also
// gets its target's directory watched.
package hotload

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Logger receives verbosity-leveled log lines.
type Logger interface {
	Log(level int, format string, args ...interface{})
}

// ReloadFunc is called with the watched path after its file settles.
type ReloadFunc func(path string) error

// Watcher watches a set of files and calls a ReloadFunc after writes.
type Watcher struct {
	log     Logger
	watcher *fsnotify.Watcher
	reload  ReloadFunc

	files       map[string]string // watched file -> resolved symlink target, or ""
	watchedDirs map[string]int    // dir path -> reference count
	mu          sync.Mutex

	// Debouncing
	pendingReloads map[string]time.Time
	debounceMu     sync.Mutex
	debounceDelay  time.Duration

	reloads int
	done    chan struct{}
}

// New creates a watcher. Call Add for each file, then Start.
func New(log Logger, reload ReloadFunc) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		log:            log,
		watcher:        watcher,
		reload:         reload,
		files:          make(map[string]string),
		watchedDirs:    make(map[string]int),
		pendingReloads: make(map[string]time.Time),
		debounceDelay:  100 * time.Millisecond,
		done:           make(chan struct{}),
	}, nil
}

// SetDebounce changes how long a file must be quiet before it is reloaded.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounceMu.Lock()
	w.debounceDelay = d
	w.debounceMu.Unlock()
}

// Add starts watching path.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; ok {
		return nil
	}
	if err := w.addWatchLocked(filepath.Dir(abs)); err != nil {
		return err
	}
	w.files[abs] = ""
	w.updateSymlinkLocked(abs)
	return nil
}

// Files returns the watched paths.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

// Reloads returns how many reloads have run.
func (w *Watcher) Reloads() int {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	return w.reloads
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go w.eventLoop()
	go w.debounceLoop()
	w.log.Log(1, "HotLoader: watching %d files", len(w.Files()))
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

// eventLoop processes file system events.
func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
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
			w.log.Log(1, "HotLoader: watcher error: %v", err)
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	file := w.resolve(event.Name)
	if file == "" {
		return
	}
	w.log.Log(3, "HotLoader: event %s on %s", event.Op, event.Name)

	if event.Name == file && event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
		w.mu.Lock()
		w.updateSymlinkLocked(file)
		w.mu.Unlock()
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.queueReload(file)
	}
}

// resolve maps an event path to the watched file it affects.
func (w *Watcher) resolve(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[name]; ok {
		return name
	}
	for file, target := range w.files {
		if target != "" && target == name {
			return file
		}
	}
	return ""
}

// queueReload queues a file for reload with debouncing.
func (w *Watcher) queueReload(path string) {
	w.debounceMu.Lock()
	w.pendingReloads[path] = time.Now()
	w.debounceMu.Unlock()
}

// debounceLoop processes pending reloads after the debounce delay.
func (w *Watcher) debounceLoop() {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.processPendingReloads()
		}
	}
}

// processPendingReloads reloads files that have been quiet for longer than debounceDelay.
func (w *Watcher) processPendingReloads() {
	w.debounceMu.Lock()
	now := time.Now()
	var toReload []string
	for path, queuedAt := range w.pendingReloads {
		if now.Sub(queuedAt) >= w.debounceDelay {
			toReload = append(toReload, path)
			delete(w.pendingReloads, path)
		}
	}
	w.debounceMu.Unlock()

	for _, path := range toReload {
		w.reloadFile(path)
	}
}

func (w *Watcher) reloadFile(path string) {
	if _, err := os.Stat(path); err != nil {
		w.log.Log(2, "HotLoader: file not found %s", path)
		return
	}
	w.log.Log(1, "HotLoader: reloading %s", path)
	if err := w.reload(path); err != nil {
		w.log.Log(0, "HotLoader: reload %s failed: %v", path, err)
	}
	w.debounceMu.Lock()
	w.reloads++
	w.debounceMu.Unlock()
}

// updateSymlinkLocked re-resolves file and moves the target directory watch.
func (w *Watcher) updateSymlinkLocked(file string) {
	if old := w.files[file]; old != "" {
		w.removeWatchLocked(filepath.Dir(old))
		w.files[file] = ""
	}
	info, err := os.Lstat(file)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return
	}
	target, err := filepath.EvalSymlinks(file)
	if err != nil {
		w.log.Log(2, "HotLoader: cannot resolve symlink %s: %v", file, err)
		return
	}
	if target, err = filepath.Abs(target); err != nil {
		return
	}
	if err := w.addWatchLocked(filepath.Dir(target)); err != nil {
		w.log.Log(1, "HotLoader: cannot watch %s: %v", filepath.Dir(target), err)
		return
	}
	w.files[file] = target
	w.log.Log(2, "HotLoader: watching symlink target %s for %s", target, file)
}

func (w *Watcher) addWatchLocked(dir string) error {
	w.watchedDirs[dir]++
	if w.watchedDirs[dir] == 1 {
		if err := w.watcher.Add(dir); err != nil {
			w.watchedDirs[dir]--
			delete(w.watchedDirs, dir)
			return err
		}
		w.log.Log(2, "HotLoader: added watch for %s", dir)
	}
	return nil
}

func (w *Watcher) removeWatchLocked(dir string) {
	w.watchedDirs[dir]--
	if w.watchedDirs[dir] <= 0 {
		w.watcher.Remove(dir)
		delete(w.watchedDirs, dir)
		w.log.Log(2, "HotLoader: removed watch for %s", dir)
	}
}
