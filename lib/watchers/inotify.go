//go:build !darwin
// +build !darwin

package watchers

import (
	"git.sr.ht/~nadine/mailthread/lib/log"
	"github.com/fsnotify/fsnotify"
)

func init() {
	RegisterWatcherFactory(newInotifyWatcher)
}

type inotifyWatcher struct {
	w  *fsnotify.Watcher
	ch chan *FSEvent
}

func newInotifyWatcher() (FSWatcher, error) {
	watcher := &inotifyWatcher{
		ch: make(chan *FSEvent),
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watcher.w = w

	go watcher.watch()
	go watcher.logErrors()
	return watcher, nil
}

func (w *inotifyWatcher) watch() {
	defer log.PanicHandler()
	defer close(w.ch)
	for ev := range w.w.Events {
		// mbox files are appended to, maildirs get files created, removed
		// or renamed. Chmod is noise.
		var op FSOperation
		switch {
		case ev.Has(fsnotify.Create):
			op = FSCreate
		case ev.Has(fsnotify.Remove):
			op = FSRemove
		case ev.Has(fsnotify.Rename):
			op = FSRename
		case ev.Has(fsnotify.Write):
			op = FSWrite
		default:
			continue
		}
		w.ch <- &FSEvent{Operation: op, Path: ev.Name}
	}
}

func (w *inotifyWatcher) logErrors() {
	defer log.PanicHandler()
	for err := range w.w.Errors {
		log.Errorf("watcher: %v", err)
	}
}

func (w *inotifyWatcher) Configure(root string) error {
	return w.w.Add(root)
}

func (w *inotifyWatcher) Events() <-chan *FSEvent {
	return w.ch
}

func (w *inotifyWatcher) Add(p string) error {
	return w.w.Add(p)
}

func (w *inotifyWatcher) Remove(p string) error {
	return w.w.Remove(p)
}

func (w *inotifyWatcher) Close() error {
	return w.w.Close()
}
