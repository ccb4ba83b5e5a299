package scripting

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads species scripts when their files change on disk.
type Watcher struct {
	mgr     *Manager
	dir     string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	// reloaded, if non-nil, receives the species name after each reload attempt.
	reloaded chan<- string
}

// NewWatcher starts watching dir for *.lua writes.
//
// Precondition: mgr and logger must be non-nil; dir must exist.
func NewWatcher(mgr *Manager, dir string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scripting: creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("scripting: watching %q: %w", dir, err)
	}
	return &Watcher{mgr: mgr, dir: dir, watcher: fw, logger: logger}, nil
}

// Notify makes Run report every reload attempt on ch.
func (w *Watcher) Notify(ch chan<- string) {
	w.reloaded = ch
}

// Run reloads changed scripts until ctx is cancelled. A script that fails to
// load is logged and the previous version stays active.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("scripting: watcher error", zap.Error(err))
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(ev.Name) != ".lua" {
				continue
			}
			species := strings.TrimSuffix(filepath.Base(ev.Name), ".lua")
			if err := w.mgr.LoadFile(species, ev.Name); err != nil {
				w.logger.Warn("scripting: reload failed, keeping previous script",
					zap.String("species", species),
					zap.Error(err),
				)
			}
			if w.reloaded != nil {
				select {
				case w.reloaded <- species:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}
