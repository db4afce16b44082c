package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/rfc822"
	"github.com/danwakefield/fnmatch"
	"github.com/emersion/go-maildir"
	"github.com/pkg/errors"
)

type MaildirStore struct {
	root      string
	maildirpp bool // whether to use Maildir++ directory layout
}

func NewMaildirStore(root string, maildirpp bool) (*MaildirStore, error) {
	f, err := os.Open(root)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("Given maildir '%s' not a directory", root)
	}
	return &MaildirStore{
		root: root, maildirpp: maildirpp,
	}, nil
}

// FolderMap lists the folders of the store, by name. Folders whose name
// matches one of the exclude patterns are left out.
func (s *MaildirStore) FolderMap(exclude []string) (map[string]maildir.Dir, error) {
	folders := make(map[string]maildir.Dir)
	add := func(name, path string) {
		for _, pattern := range exclude {
			if fnmatch.Match(pattern, name, 0) {
				log.Debugf("excluding folder %s (%s)", name, pattern)
				return
			}
		}
		folders[name] = maildir.Dir(path)
	}
	if s.maildirpp && isMaildir(s.root) {
		// In Maildir++ layout, INBOX is the root folder
		add("INBOX", s.root)
	}
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("Invalid path '%s': error: %w", path, err)
		}
		if !info.IsDir() {
			return nil
		}

		// Skip maildir's default directories
		n := info.Name()
		if n == "new" || n == "tmp" || n == "cur" {
			return filepath.SkipDir
		}

		// Get the relative path from the parent directory
		dirPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		// Skip the parent directory
		if dirPath == "." {
			return nil
		}

		// Drop dirs that lack {new,cur} subdirs
		if !isMaildir(path) {
			return nil
		}

		if s.maildirpp {
			// In Maildir++ layout, mailboxes are stored in a single directory
			// and prefixed with a dot, and subfolders are separated by dots.
			if !strings.HasPrefix(dirPath, ".") {
				return filepath.SkipDir
			}
			dirPath = strings.TrimPrefix(dirPath, ".")
			dirPath = strings.ReplaceAll(dirPath, ".", "/")
			add(dirPath, path)

			// Since all mailboxes are stored in a single directory, don't
			// recurse into subdirectories
			return filepath.SkipDir
		}

		add(filepath.ToSlash(dirPath), path)
		return nil
	})
	return folders, err
}

// Dir returns a maildir.Dir with the specified name inside the Store
func (s *MaildirStore) Dir(name string) maildir.Dir {
	if s.maildirpp {
		// Use Maildir++ layout
		if name == "INBOX" {
			return maildir.Dir(s.root)
		}
		return maildir.Dir(filepath.Join(s.root, "."+strings.ReplaceAll(name, "/", ".")))
	}
	return maildir.Dir(filepath.Join(s.root, name))
}

type maildirSource struct {
	path    string
	names   []string
	folders map[string]maildir.Dir
	cache   *Cache
}

func newMaildirSource(path string, folders map[string]maildir.Dir, cache *Cache) *maildirSource {
	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return &maildirSource{
		path: path, names: names, folders: folders, cache: cache,
	}
}

func (s *maildirSource) Name() string {
	return s.path
}

func (s *maildirSource) Messages() ([]*jwz.Message, error) {
	messages := make([]*jwz.Message, 0)
	for _, name := range s.names {
		msgs, err := s.readFolder(name, s.folders[name])
		if err != nil {
			return nil, err
		}
		messages = append(messages, msgs...)
	}
	return messages, nil
}

// readFolder reads the messages of both cur and new. Nothing is moved from
// new to cur: the maildir is left as it was found.
func (s *maildirSource) readFolder(name string, dir maildir.Dir) ([]*jwz.Message, error) {
	cur, err := dir.Keys()
	if err != nil {
		return nil, errors.Wrap(err, "Keys")
	}
	unseen, err := newKeys(dir)
	if err != nil {
		return nil, err
	}

	// Keys start with the delivery time, sorting them gives arrival order
	keys := make([]string, 0, len(cur)+len(unseen))
	files := make(map[string]string, len(cur)+len(unseen))
	for _, key := range cur {
		keys = append(keys, key)
		files[key] = ""
	}
	for key, file := range unseen {
		if _, ok := files[key]; !ok {
			keys = append(keys, key)
		}
		files[key] = file
	}
	sort.Strings(keys)

	folder := cacheFolder(dir)
	messages := make([]*jwz.Message, 0, len(keys))
	hits := 0
	for _, key := range keys {
		if msg := s.cache.Get(folder, key); msg != nil {
			messages = append(messages, msg)
			hits++
			continue
		}
		msg, err := readMaildirMessage(dir, key, files[key])
		if err != nil {
			log.Warnf("%s/%s: skipping message: %v", name, key, err)
			continue
		}
		msg.Key = name + "/" + key
		s.cache.Put(folder, key, msg)
		messages = append(messages, msg)
	}
	log.Debugf("%s: %d messages, %d from cache", name, len(messages), hits)
	if err := s.cache.Clean(folder, keys); err != nil {
		log.Errorf("%s: cannot clean cache: %v", name, err)
	}
	return messages, nil
}

// cacheFolder returns the absolute directory of dir, with forward slashes,
// under which its messages are cached.
func cacheFolder(dir maildir.Dir) string {
	path, err := filepath.Abs(string(dir))
	if err != nil {
		log.Warnf("%s: %v", dir, err)
		path = string(dir)
	}
	return filepath.ToSlash(path)
}

// newKeys maps the keys of the messages in the new subdirectory to their
// file name.
func newKeys(dir maildir.Dir) (map[string]string, error) {
	entries, err := os.ReadDir(filepath.Join(string(dir), "new"))
	if err != nil {
		return nil, errors.Wrap(err, "os.ReadDir")
	}
	keys := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		key := e.Name()
		if i := strings.IndexByte(key, ':'); i >= 0 {
			key = key[:i]
		}
		keys[key] = filepath.Join(string(dir), "new", e.Name())
	}
	return keys, nil
}

func readMaildirMessage(dir maildir.Dir, key, file string) (*jwz.Message, error) {
	var (
		f   io.ReadCloser
		err error
	)
	if file != "" {
		f, err = os.Open(file)
	} else {
		f, err = dir.Open(key)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rfc822.ReadMessage(f)
}

func (s *maildirSource) WatchPaths() []string {
	paths := make([]string, 0, 2*len(s.names))
	for _, name := range s.names {
		dir := string(s.folders[name])
		paths = append(paths, filepath.Join(dir, "cur"), filepath.Join(dir, "new"))
	}
	return paths
}
