//go:build darwin

package watchers

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.sr.ht/~nadine/mailthread/lib/log"
	"github.com/fsnotify/fsevents"
)

func init() {
	RegisterWatcherFactory(newDarwinWatcher)
}

// darwinWatcher runs one event stream per root. fsevents streams are
// recursive so Add on a path below a configured root is a no-op.
type darwinWatcher struct {
	mu      sync.Mutex
	ch      chan *FSEvent
	streams map[string]*fsevents.EventStream
	wg      sync.WaitGroup
	done    chan struct{}
}

func newDarwinWatcher() (FSWatcher, error) {
	watcher := &darwinWatcher{
		ch:      make(chan *FSEvent),
		streams: make(map[string]*fsevents.EventStream),
		done:    make(chan struct{}),
	}
	return watcher, nil
}

func (w *darwinWatcher) watch(es *fsevents.EventStream) {
	defer log.PanicHandler()
	defer w.wg.Done()
	for {
		var events []fsevents.Event
		select {
		case <-w.done:
			return
		case events = <-es.Events:
		}
		for _, ev := range events {
			var op FSOperation
			switch {
			case ev.Flags&fsevents.ItemCreated > 0:
				op = FSCreate
			case ev.Flags&fsevents.ItemRenamed > 0:
				op = FSRename
			case ev.Flags&fsevents.ItemRemoved > 0:
				op = FSRemove
			case ev.Flags&fsevents.ItemModified > 0:
				op = FSWrite
			default:
				continue
			}
			select {
			case w.ch <- &FSEvent{Operation: op, Path: ev.Path}:
			case <-w.done:
				return
			}
		}
	}
}

func (w *darwinWatcher) covered(p string) bool {
	for root := range w.streams {
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *darwinWatcher) Configure(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.covered(root) {
		return nil
	}
	dev, err := fsevents.DeviceForPath(root)
	if err != nil {
		return err
	}
	es := &fsevents.EventStream{
		Device:  dev,
		Paths:   []string{root},
		Flags:   fsevents.WatchRoot | fsevents.FileEvents,
		Latency: 500 * time.Millisecond,
	}
	if err := es.Start(); err != nil {
		return err
	}
	w.streams[root] = es
	w.wg.Add(1)
	go w.watch(es)
	return nil
}

func (w *darwinWatcher) Events() <-chan *FSEvent {
	return w.ch
}

func (w *darwinWatcher) Add(p string) error {
	return w.Configure(p)
}

func (w *darwinWatcher) Remove(p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if es, ok := w.streams[p]; ok {
		es.Stop()
		delete(w.streams, p)
	}
	return nil
}

func (w *darwinWatcher) Close() error {
	w.mu.Lock()
	for p, es := range w.streams {
		es.Stop()
		delete(w.streams, p)
	}
	w.mu.Unlock()
	close(w.done)
	go func() {
		w.wg.Wait()
		close(w.ch)
	}()
	return nil
}
