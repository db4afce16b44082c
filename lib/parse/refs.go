package parse

import (
	"github.com/emersion/go-message/mail"
)

// References returns the references of the message with the given header,
// ready for threading. The References field is used when present, falling
// back to In-Reply-To, and the result goes through CleanRefs.
func References(h *mail.Header, msgID string) []string {
	var irt string
	if irtList := MsgIDList(h, "in-reply-to"); len(irtList) > 0 {
		irt = irtList[0]
	}
	refs := MsgIDList(h, "references")
	if len(refs) == 0 {
		if irt == "" {
			return nil
		}
		refs = []string{irt}
	}
	return CleanRefs(msgID, irt, refs)
}

// CleanRefs cleans up the references headers for threading
//  1. message-id should not be part of the references
//  2. no message-id should occur twice (avoid circularities)
//  3. in-reply-to header should not be at the beginning
func CleanRefs(m, irt string, refs []string) []string {
	considered := make(map[string]struct{}, len(refs))
	cleanRefs := make([]string, 0, len(refs))
	for _, r := range refs {
		if _, seen := considered[r]; r != m && r != "" && !seen {
			considered[r] = struct{}{}
			cleanRefs = append(cleanRefs, r)
		}
	}
	if irt != "" && len(cleanRefs) > 1 && cleanRefs[0] == irt {
		cleanRefs = append(cleanRefs[1:], irt)
	}
	return cleanRefs
}
