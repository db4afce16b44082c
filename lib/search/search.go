// Package search narrows a thread forest down to the threads of interest.
package search

import (
	"errors"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchMessage reports whether the characters of pattern appear in order,
// ignoring case, in the normalized subject or the sender of msg.
func MatchMessage(msg *jwz.Message, pattern string, normalize func(string) string) bool {
	if msg == nil {
		return false
	}
	if normalize == nil {
		normalize = jwz.NormalizeSubject
	}
	return fuzzy.MatchFold(pattern, normalize(msg.Subject)) ||
		fuzzy.MatchFold(pattern, msg.From)
}

// Filter returns the roots having at least one matching message in their
// thread. Whole threads are kept: matching is only used to pick them. An
// empty pattern matches everything.
func Filter(roots []*jwz.Container, pattern string, normalize func(string) string) []*jwz.Container {
	if pattern == "" {
		return roots
	}
	kept := make([]*jwz.Container, 0, len(roots))
	for _, root := range roots {
		if matchThread(root, pattern, normalize) {
			kept = append(kept, root)
		}
	}
	return kept
}

var errFound = errors.New("found")

func matchThread(root *jwz.Container, pattern string, normalize func(string) string) bool {
	err := jwz.Walk([]*jwz.Container{root}, func(c *jwz.Container, _ int) error {
		if MatchMessage(c.Message(), pattern, normalize) {
			return errFound
		}
		return nil
	})
	return errors.Is(err, errFound)
}
