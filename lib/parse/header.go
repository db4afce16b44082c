// Package parse extracts threading information from email headers.
package parse

import (
	"strings"

	"git.sr.ht/~nadine/mailthread/lib/log"
	"github.com/emersion/go-message/mail"
)

// MsgIDList parses a list of message identifiers such as the In-Reply-To
// and References fields, without angle brackets. A missing field gives nil.
//
// Fields that do not conform to RFC 5322 are scanned for anything that
// looks like <left@right>; the rest of the field is dropped.
func MsgIDList(h *mail.Header, key string) []string {
	l, err := h.MsgIDList(key)
	if err == nil {
		return l
	}
	value := h.Get(key)
	log.Debugf("%s: %v: %q", key, err, value)
	return scanMsgIDs(value)
}

func scanMsgIDs(value string) []string {
	var ids []string
	for {
		start := strings.IndexByte(value, '<')
		if start < 0 {
			return ids
		}
		value = value[start+1:]
		end := strings.IndexAny(value, "<>")
		if end < 0 {
			return ids
		}
		if value[end] == '<' {
			// unbalanced, start over from the inner bracket
			value = value[end:]
			continue
		}
		if id := value[:end]; isMsgID(id) {
			ids = append(ids, id)
		}
		value = value[end+1:]
	}
}

func isMsgID(id string) bool {
	at := strings.IndexByte(id, '@')
	return at > 0 && at < len(id)-1 &&
		strings.IndexByte(id[at+1:], '@') < 0 &&
		!strings.ContainsAny(id, " \t\r\n")
}
