// Package configwatch is an advisory fsnotify watch on the configuration
// document: it logs when the file changes but never triggers a reload,
// since ProjectConfig is immutable after Load (spec.md §3). Grounded on
// _examples/Nehonix-Team-XyPriss/tools/xypriss-sys-go/internal/watcher/watcher.go
// (Watch's event-type switch over fsnotify.Event.Has, goroutine draining
// both Events and Errors channels), trimmed to a single "changed" signal
// since the distinction between write/create/rename doesn't matter here.
package configwatch

import (
	"github.com/fsnotify/fsnotify"
	"github.com/nehonix-oss/procsupervisor/internal/xlog"
)

// Watcher wraps a single fsnotify watch on the config file path.
type Watcher struct {
	w *fsnotify.Watcher
}

// Watch starts watching path and logs (at WARN) every change event
// observed on it. The returned Watcher must be closed by the caller.
func Watch(path string, log *xlog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	cw := &Watcher{w: fw}
	go cw.drain(path, log)
	return cw, nil
}

func (cw *Watcher) drain(path string, log *xlog.Logger) {
	for {
		select {
		case event, ok := <-cw.w.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				log.Warnf("configwatch: %s changed on disk; the running configuration is not reloaded", path)
			}
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			log.Warnf("configwatch: watch error: %v", err)
		}
	}
}

// Close stops the watch.
func (cw *Watcher) Close() error {
	return cw.w.Close()
}
