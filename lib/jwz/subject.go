// SPDX-License-Identifier: Apache-2.0

package jwz

import (
	"regexp"

	sortthread "github.com/emersion/go-imap-sortthread"
)

// subjectNoise matches one leading "Re:", "Re[2]:" or "[list]" token along
// with the whitespace around it.
var subjectNoise = regexp.MustCompile(`(?i)^\s*(?:re(?:\[\d+\])?:|\[[^\]]*\])\s*`)

// NormalizeSubject strips reply markers and bracketed list tags from the front
// of subject, so that "Re: Lunch", "RE[3]: Lunch" and "[coders] Re: Lunch"
// all become "Lunch". Anything after the first non-noise character is left
// alone.
func NormalizeSubject(subject string) string {
	for {
		loc := subjectNoise.FindStringIndex(subject)
		if loc == nil || loc[1] == 0 {
			return subject
		}
		subject = subject[loc[1]:]
	}
}

// BaseSubject is an alternative to NormalizeSubject which extracts the RFC 5256
// base subject: besides reply markers it removes forward markers and
// trailing "(fwd)" and folds runs of whitespace.
func BaseSubject(subject string) string {
	base, _ := sortthread.GetBaseSubject(subject)
	return base
}
