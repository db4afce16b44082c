// Package source reads the messages to thread out of maildirs, mbox files
// and single .eml files.
package source

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"github.com/emersion/go-maildir"
	"github.com/pkg/errors"
)

// A Source is a set of messages on disk.
type Source interface {
	// Name is the path the source was opened with.
	Name() string
	// Messages reads every message of the source, in arrival order as far
	// as it can be told. Messages that cannot be parsed are logged and
	// skipped.
	Messages() ([]*jwz.Message, error)
	// WatchPaths lists the files and directories to watch for changes.
	WatchPaths() []string
}

type Options struct {
	// MaildirPP selects the Maildir++ layout for maildir stores.
	MaildirPP bool
	// FoldersExclude lists fnmatch patterns of maildir store folders to
	// leave out.
	FoldersExclude []string
	// Cache, if not nil, holds parsed maildir messages across runs.
	Cache *Cache
}

// Open guesses the kind of source found at path: a directory with cur and
// new subdirectories is a single maildir, any other directory is a maildir
// store. A file starting with a "From " line is an mbox, any other file is
// taken as a single message.
func Open(path string, opts Options) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "os.Stat")
	}
	if info.IsDir() {
		if isMaildir(path) {
			return newMaildirSource(path, map[string]maildir.Dir{
				filepath.Base(path): maildir.Dir(path),
			}, opts.Cache), nil
		}
		store, err := NewMaildirStore(path, opts.MaildirPP)
		if err != nil {
			return nil, err
		}
		folders, err := store.FolderMap(opts.FoldersExclude)
		if err != nil {
			return nil, err
		}
		if len(folders) == 0 {
			return nil, fmt.Errorf("%s: no maildir folder found", path)
		}
		return newMaildirSource(path, folders, opts.Cache), nil
	}

	mbox, err := isMbox(path)
	if err != nil {
		return nil, err
	}
	if mbox {
		return &mboxSource{path: path}, nil
	}
	return &emlSource{path: path}, nil
}

func isMaildir(path string) bool {
	for _, sub := range []string{"cur", "new"} {
		info, err := os.Stat(filepath.Join(path, sub))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// isMbox reports whether the file at path looks like an mbox. Empty files
// are empty mailboxes.
func isMbox(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrap(err, "os.Open")
	}
	defer f.Close()
	br := bufio.NewReader(f)
	start, err := br.Peek(5)
	switch {
	case len(start) == 0:
		return true, nil
	case err != nil && len(start) < 5:
		return false, nil
	}
	return string(start) == "From ", nil
}
