package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the loaded settings file and reports external edits.
// Changed values take effect on the next natural restart of whatever
// component reads them; nothing is hot-reloaded.
type Watcher struct {
	watcher       *fsnotify.Watcher
	path          string
	eventChan     chan struct{}
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// NewWatcher starts watching the settings file's directory. A nil Watcher
// and nil error are returned when there is no settings file to watch.
func NewWatcher(path string) (*Watcher, error) {
	if path == "" {
		return nil, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory to survive editors replacing the file.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:   fsw,
		path:      path,
		eventChan: make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Events signals each (debounced) settings file change.
func (w *Watcher) Events() <-chan struct{} {
	return w.eventChan
}

func (w *Watcher) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, func() {
					select {
					case w.eventChan <- struct{}{}:
					default:
					}
				})
			}

		case <-w.watcher.Errors:
			// Watch errors are not actionable for the client; keep running.

		case <-w.stopChan:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	return w.watcher.Close()
}
