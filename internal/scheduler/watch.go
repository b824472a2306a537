package scheduler

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/aihangout/hangoutsync/internal/modeflags"
)

// WatchFlags reloads the flags file whenever it changes and delivers the
// latest snapshot on the returned channel. Only the newest unread snapshot
// is kept. The channel closes when ctx is done.
//
// The parent directory is watched so that atomic replacement by rename is
// seen as well as in-place writes.
func WatchFlags(ctx context.Context, path string, logger Logger) (<-chan modeflags.Flags, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	logf := loggerFunc(logger)
	base := filepath.Base(abs)
	out := make(chan modeflags.Flags, 1)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				flags, err := modeflags.Load(abs)
				if err != nil {
					logf("reload flags file %s failed: %v", abs, err)
					continue
				}
				logf("flags file %s reloaded (%d keys)", abs, len(flags))
				select {
				case <-out:
				default:
				}
				out <- flags
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logf("flags watcher error: %v", err)
			}
		}
	}()
	return out, nil
}
