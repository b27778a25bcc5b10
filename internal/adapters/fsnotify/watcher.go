// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It recursively watches a project directory, filters out VCS, vendor and
// build directories and files outside the configured extensions, and
// debounces rapid events (editors often trigger multiple writes per save).
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corey/xtags/internal/ports"
	"github.com/fsnotify/fsnotify"
)

// Directories to ignore when watching.
var ignoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	".venv":        true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
	"dist":         true,
	"build":        true,
	".xtags":       true,
	"target":       true,
}

// File names/suffixes to ignore.
var ignoreFiles = map[string]bool{
	".DS_Store": true,
	".swp":      true,
	".swx":      true,
	"~":         true,
	".o":        true,
	".so":       true,
	".dylib":    true,
}

const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw         *fsnotify.Watcher
	extensions map[string]bool
	done       chan struct{}
	stopped    bool
	mu         sync.Mutex
}

var _ ports.Watcher = (*Watcher)(nil)

// NewWatcher creates a new file system watcher. When extensions are given
// (".tex", "md"), only files with one of them are reported.
func NewWatcher(extensions ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:   fw,
		done: make(chan struct{}),
	}
	if len(extensions) > 0 {
		w.extensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			w.extensions[NormalizeExt(ext)] = true
		}
	}
	return w, nil
}

// NormalizeExt lower-cases ext and gives it a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Watch starts monitoring projectPath recursively.
// onChange is called with the absolute path of each changed file; removed
// is true when the file was deleted or renamed away.
func (w *Watcher) Watch(projectPath string, onChange func(filePath string, removed bool)) error {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return err
	}
	if err := w.addTree(absPath, true); err != nil {
		return err
	}

	// Debounce state: last event time per file and event class
	type debounceKey struct {
		path    string
		removed bool
	}
	debounce := make(map[debounceKey]time.Time)

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name

				// New directories join the watch list with their contents.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(path); err == nil && info.IsDir() {
						if !IgnoreDir(info.Name()) {
							w.addTree(path, false)
						}
						continue
					}
				}

				if w.shouldIgnorePath(path) {
					continue
				}

				removed := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
				if !removed && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !removed {
					if info, err := os.Stat(path); err != nil || info.IsDir() {
						continue
					}
				}

				key := debounceKey{path, removed}
				now := time.Now()
				if last, seen := debounce[key]; seen && now.Sub(last) < debounceInterval {
					continue
				}
				debounce[key] = now

				select {
				case <-w.done:
					return
				default:
				}
				onChange(path, removed)

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed: fsnotify recovers automatically

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// addTree adds root and every non-ignored directory below it.
func (w *Watcher) addTree(root string, isProject bool) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if IgnoreDir(info.Name()) && !(isProject && path == root) {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// IgnoreDir returns true if the directory name should be skipped.
func IgnoreDir(name string) bool {
	return ignoreDirs[name]
}

// shouldIgnorePath returns true if the file path should not trigger onChange.
func (w *Watcher) shouldIgnorePath(path string) bool {
	base := filepath.Base(path)

	if ignoreFiles[base] {
		return true
	}
	for suffix := range ignoreFiles {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}

	// Check if any path component is an ignored directory
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if ignoreDirs[part] {
			return true
		}
	}

	if w.extensions != nil && !w.extensions[strings.ToLower(filepath.Ext(base))] {
		return true
	}
	return false
}
