package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before recompiling.
const DefaultDebounce = 100 * time.Millisecond

// Watcher recompiles source files when they change on disk.
type Watcher struct {
	compiler *Compiler
	fs       *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher watches every directory under roots. Directories created later
// are added as they appear.
func NewWatcher(c *Compiler, roots []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{compiler: c, fs: fw, debounce: debounce}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }

// Run delivers a freshly compiled unit to onUnit for every source file that
// was written or created, once events have been quiet for the debounce
// interval. It returns when ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context, onUnit func(*Unit)) error {
	pending := make(map[string]bool)
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.compiler.log.Warn("%v", err)
					}
					continue
				}
			}
			if !IsSource(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				w.compiler.log.Debug("ignoring %s on %s", ev.Op, ev.Name)
				continue
			}
			pending[ev.Name] = true
			fire = time.After(w.debounce)

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = make(map[string]bool)
			sort.Strings(paths)

			for _, p := range paths {
				u, err := w.compiler.CompileFile(p)
				if err != nil {
					if errors.Is(err, fs.ErrNotExist) {
						continue
					}
					w.compiler.log.Warn("%v", err)
					continue
				}
				onUnit(u)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}
