package watchers

import (
	"fmt"
	"runtime"
)

// FSWatcher is a file system watcher
type FSWatcher interface {
	Configure(string) error
	Events() <-chan *FSEvent
	// Adds a directory or file to the watcher
	Add(string) error
	// Removes a directory or file from the watcher
	Remove(string) error
	// Stops the watcher and closes the events channel
	Close() error
}

type FSOperation int

const (
	FSCreate FSOperation = iota
	FSRemove
	FSRename
	FSWrite
)

func (op FSOperation) String() string {
	switch op {
	case FSCreate:
		return "create"
	case FSRemove:
		return "remove"
	case FSRename:
		return "rename"
	case FSWrite:
		return "write"
	}
	return fmt.Sprintf("FSOperation(%d)", int(op))
}

type FSEvent struct {
	Operation FSOperation
	Path      string
}

func (ev *FSEvent) String() string {
	return ev.Operation.String() + " " + ev.Path
}

type WatcherFactoryFunc func() (FSWatcher, error)

var watcherFactory WatcherFactoryFunc

func RegisterWatcherFactory(fn WatcherFactoryFunc) {
	watcherFactory = fn
}

func NewWatcher() (FSWatcher, error) {
	if watcherFactory == nil {
		return nil, fmt.Errorf("Unsupported OS: %s", runtime.GOOS)
	}
	return watcherFactory()
}
