package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/rfc822"
	"github.com/emersion/go-mbox"
	"github.com/miolini/datacounter"
	pkgerr "github.com/pkg/errors"
)

type mboxSource struct {
	path string
}

func (s *mboxSource) Name() string {
	return s.path
}

func (s *mboxSource) Messages() ([]*jwz.Message, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, pkgerr.Wrap(err, "os.Open")
	}
	defer f.Close()
	ctr := datacounter.NewReaderCounter(f)
	msgs, err := ReadMbox(ctr, s.path)
	if err != nil {
		return nil, err
	}
	log.Tracef("%s: %d messages in %d bytes", s.path, len(msgs), ctr.Count())
	return msgs, nil
}

func (s *mboxSource) WatchPaths() []string {
	return []string{s.path}
}

// ReadMbox parses the headers of every message in the mbox read from r.
// Messages get a key made of name and their position in the mailbox.
// Messages that cannot be parsed are skipped.
func ReadMbox(r io.Reader, name string) ([]*jwz.Message, error) {
	mbr := mbox.NewReader(r)
	messages := make([]*jwz.Message, 0)
	for i := 0; ; i++ {
		raw, err := mbr.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, pkgerr.Wrap(err, "NextMessage")
		}

		msg, err := rfc822.ReadMessage(raw)
		if err != nil {
			log.Warnf("%s: skipping message %d: %v", name, i, err)
			continue
		}
		msg.Key = fmt.Sprintf("%s:%d", name, i)
		messages = append(messages, msg)
	}
	return messages, nil
}
