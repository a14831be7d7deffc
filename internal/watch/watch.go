// Package watch reports changes to a fixed set of files.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is given.
const DefaultDebounce = 100 * time.Millisecond

// Watcher emits a file's path on Events once it has stopped changing for
// the debounce period. Parent directories are watched so files replaced by
// rename are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration

	Events chan string
	Errors chan error

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New starts watching files.
func New(debounce time.Duration, files ...string) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		watched[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	watcher := &Watcher{
		watcher:  w,
		files:    watched,
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Files returns the watched paths.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Close stops the watcher. Events and Errors are closed once it returns.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.files[name] {
				continue
			}
			pending[name] = true
			timer.Reset(w.debounce)
		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			pending = make(map[string]bool)
			for _, name := range names {
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
