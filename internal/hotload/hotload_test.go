package hotload

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/zot/seriesdata/internal/config"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) reload(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func tempDir(t *testing.T) string {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	return dir
}

func quietConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Logging.Verbosity = 0
	return cfg
}

func startWatcher(t *testing.T, files ...string) (*Watcher, *recorder) {
	t.Helper()
	rec := &recorder{}
	w, err := New(quietConfig(), rec.reload)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.SetDebounce(50 * time.Millisecond)
	for _, f := range files {
		if err := w.Add(f); err != nil {
			t.Fatalf("Add(%s): %v", f, err)
		}
	}
	w.Start()
	t.Cleanup(func() { w.Stop() })
	time.Sleep(50 * time.Millisecond)
	return w, rec
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out")
}

func TestReloadOnWrite(t *testing.T) {
	dir := tempDir(t)
	file := filepath.Join(dir, "data.json")
	os.WriteFile(file, []byte("[]"), 0644)

	w, rec := startWatcher(t, file)
	if w.watchedDirs[dir] != 1 {
		t.Errorf("watchedDirs = %v", w.watchedDirs)
	}

	os.WriteFile(file, []byte(`[{"x":1}]`), 0644)
	waitFor(t, func() bool { return len(rec.get()) > 0 })
	if got := rec.get()[0]; got != file {
		t.Errorf("reloaded %q, want %q", got, file)
	}
}

func TestDebounceCoalescesWrites(t *testing.T) {
	dir := tempDir(t)
	file := filepath.Join(dir, "data.json")
	os.WriteFile(file, []byte("[]"), 0644)

	w, rec := startWatcher(t, file)
	w.SetDebounce(200 * time.Millisecond)
	for i := 0; i < 5; i++ {
		os.WriteFile(file, []byte("[]"), 0644)
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, func() bool { return w.Reloads() > 0 })
	time.Sleep(300 * time.Millisecond)
	if n := len(rec.get()); n != 1 {
		t.Errorf("reloads = %d, want 1", n)
	}
}

func TestIgnoreOtherFiles(t *testing.T) {
	dir := tempDir(t)
	file := filepath.Join(dir, "data.json")
	os.WriteFile(file, []byte("[]"), 0644)

	_, rec := startWatcher(t, file)
	os.WriteFile(filepath.Join(dir, "other.json"), []byte("[]"), 0644)
	time.Sleep(250 * time.Millisecond)
	if n := len(rec.get()); n != 0 {
		t.Errorf("reloads = %d, want 0", n)
	}
}

func TestSymlinkTarget(t *testing.T) {
	dir := tempDir(t)
	targetDir := tempDir(t)
	target := filepath.Join(targetDir, "real.json")
	os.WriteFile(target, []byte("[]"), 0644)
	link := filepath.Join(dir, "data.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("Cannot create symlinks: %v", err)
	}

	w, rec := startWatcher(t, link)
	w.mu.Lock()
	tracked := w.files[link]
	count := w.watchedDirs[targetDir]
	w.mu.Unlock()
	if tracked != target || count != 1 {
		t.Fatalf("files[%s] = %q, watchedDirs[%s] = %d", link, tracked, targetDir, count)
	}

	os.WriteFile(target, []byte(`[{"x":2}]`), 0644)
	waitFor(t, func() bool { return len(rec.get()) > 0 })
	if got := rec.get()[0]; got != link {
		t.Errorf("reloaded %q, want %q", got, link)
	}
}
