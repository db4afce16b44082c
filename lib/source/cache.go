package source

import (
	"bytes"
	"encoding/gob"
	"time"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"git.sr.ht/~nadine/mailthread/lib/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Cache keeps parsed maildir messages in a leveldb database so that they do
// not need to be read again on the next run. Maildir keys never change for a
// given file, which makes them usable as cache keys.
//
// A nil *Cache is valid and caches nothing.
type Cache struct {
	db *leveldb.DB
}

type cachedMessage struct {
	Message jwz.Message
	Created time.Time
}

// OpenCache opens (or creates) the cache database in dir.
func OpenCache(dir string) (*Cache, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	log.Debugf("cache db opened: %s", dir)
	return &Cache{db: db}, nil
}

func cacheKey(folder, key string) []byte {
	return []byte("msg." + folder + "/" + key)
}

func folderPrefix(folder string) []byte {
	return []byte("msg." + folder + "/")
}

// Get returns the cached message for key in folder, or nil.
func (c *Cache) Get(folder, key string) *jwz.Message {
	if c == nil {
		return nil
	}
	data, err := c.db.Get(cacheKey(folder, key), nil)
	if err != nil {
		if err != leveldb.ErrNotFound {
			log.Errorf("cannot read cached message %s/%s: %v", folder, key, err)
		}
		return nil
	}
	cm := &cachedMessage{}
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(cm); err != nil {
		log.Errorf("cannot decode cached message %s/%s: %v", folder, key, err)
		return nil
	}
	return &cm.Message
}

// Put stores msg as the message for key in folder.
func (c *Cache) Put(folder, key string, msg *jwz.Message) {
	if c == nil {
		return
	}
	data := bytes.NewBuffer(nil)
	enc := gob.NewEncoder(data)
	err := enc.Encode(&cachedMessage{Message: *msg, Created: time.Now()})
	if err != nil {
		log.Errorf("cannot encode message %s/%s: %v", folder, key, err)
		return
	}
	err = c.db.Put(cacheKey(folder, key), data.Bytes(), nil)
	if err != nil {
		log.Errorf("cannot write message %s/%s: %v", folder, key, err)
	}
}

// Clean drops the cached messages of folder whose key is not in keys.
func (c *Cache) Clean(folder string, keys []string) error {
	if c == nil {
		return nil
	}
	live := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		live[string(cacheKey(folder, k))] = struct{}{}
	}
	prefix := folderPrefix(folder)
	iter := c.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	batch := new(leveldb.Batch)
	for iter.Next() {
		// keys of subfolders share the prefix
		if bytes.IndexByte(iter.Key()[len(prefix):], '/') >= 0 {
			continue
		}
		if _, ok := live[string(iter.Key())]; !ok {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if batch.Len() > 0 {
		log.Tracef("removing %d stale messages from cache", batch.Len())
	}
	return c.db.Write(batch, nil)
}

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
