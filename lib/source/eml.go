package source

import (
	"os"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/rfc822"
	"github.com/pkg/errors"
)

type emlSource struct {
	path string
}

func (s *emlSource) Name() string {
	return s.path
}

func (s *emlSource) Messages() ([]*jwz.Message, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "os.Open")
	}
	defer f.Close()
	msg, err := rfc822.ReadMessage(f)
	if err != nil {
		log.Warnf("%s: skipping message: %v", s.path, err)
		return nil, nil
	}
	msg.Key = s.path
	return []*jwz.Message{msg}, nil
}

func (s *emlSource) WatchPaths() []string {
	return []string{s.path}
}
