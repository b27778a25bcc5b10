package app

import (
	"context"
	"errors"
	"io/fs"

	"github.com/corey/xtags/internal/ports"
	"golang.org/x/sync/errgroup"
)

// fileEvent is one change reported by the watcher.
type fileEvent struct {
	path    string
	removed bool
}

// Watch re-tags files under root as they change until ctx is done. Watcher
// callbacks arrive on the watcher's goroutine and are handed to this one,
// which alone drives the bridge. A fatal bridge error ends the watch.
func (a *App) Watch(ctx context.Context, root string, w ports.Watcher) error {
	g, gctx := errgroup.WithContext(ctx)
	events := make(chan fileEvent, 64)

	err := w.Watch(root, func(path string, removed bool) {
		select {
		case events <- fileEvent{path, removed}:
		case <-gctx.Done():
		}
	})
	if err != nil {
		return err
	}
	a.Logger.Info("watching", "dir", root)

	g.Go(func() error {
		<-gctx.Done()
		return w.Stop()
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				if err := a.onFileChanged(ev); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

// onFileChanged handles a file create/modify/delete event from the watcher.
func (a *App) onFileChanged(ev fileEvent) error {
	if !a.wantFile(ev.path) {
		return nil
	}
	if !ev.removed {
		_, err := a.TagFile(ev.path)
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		// Gone before it could be read.
	}
	if err := a.Forget(ev.path); err != nil {
		return err
	}
	a.Logger.Debug("file removed", "file", a.relative(ev.path))
	return nil
}
