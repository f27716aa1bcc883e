package theme

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"go-drumpad/debug"
)

// Watcher reloads a palette file when it changes on disk
type Watcher struct {
	path string
	w    *fsnotify.Watcher
}

// NewWatcher starts watching path. The parent directory is watched since
// editors often replace the file on save.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{path: filepath.Clean(path), w: w}, nil
}

// Run calls fn with each palette that parses after a change. Broken edits
// are logged and skipped. Run returns when ctx is done.
func (pw *Watcher) Run(ctx context.Context, fn func(*Palette)) {
	defer pw.w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-pw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != pw.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			p, err := LoadGPL(pw.path)
			if err != nil {
				debug.Log("theme", "reload %s: %v", pw.path, err)
				continue
			}
			debug.Log("theme", "reloaded %s (%d colors)", pw.path, len(p.Colors))
			fn(p)

		case err, ok := <-pw.w.Errors:
			if !ok {
				return
			}
			debug.Log("theme", "watch %s: %v", pw.path, err)
		}
	}
}
