package ports

// Watcher monitors a project directory for file changes and triggers
// re-tagging. The adapter (fsnotify) must filter out VCS, vendor and build
// directories before invoking onChange. Only one Watch call should be active
// at a time.
type Watcher interface {
	// Watch starts monitoring projectPath recursively. onChange is called
	// with the absolute path of each changed file and whether it was
	// removed. The callback may be invoked from any goroutine.
	Watch(projectPath string, onChange func(filePath string, removed bool)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
