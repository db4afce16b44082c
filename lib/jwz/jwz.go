// Package jwz is an implementation of the email threading algorithm created by
// Jamie Zawinski and explained by him at: https://www.jwz.org/doc/threading.html
//
// It started from the jwz package by Jim Idle (itself cribbed from the
// grendel Threader.java) and was reshaped around plain containers holding
// slices of children, with each phase of the algorithm callable on its own.
//
// SPDX-License-Identifier: Apache-2.0

package jwz

import (
	"errors"
	"fmt"

	"git.sr.ht/~nadine/mailthread/lib/log"
)

var (
	// ErrMissingID is returned when a message without an id is given to the
	// Threader. Such messages cannot be put in the id table.
	ErrMissingID = errors.New("message has no id")

	// ErrTooManyMessages is returned when the input is larger than
	// Threader.MaxMessages.
	ErrTooManyMessages = errors.New("too many messages")
)

var logger = log.NewLogger("jwz", 2)

// Threader arranges a set of messages into a thread hierarchy, by references.
//
// The zero value is ready to use. A Threader may be reused, but not from
// several goroutines at once.
type Threader struct {
	// Prune removes dummy containers from the result of Thread. When false,
	// Thread returns the root set exactly as linking left it.
	Prune bool

	// MaxMessages bounds the size of the input; 0 means no limit.
	MaxMessages int

	// Normalize simplifies subjects for ThreadBySubject. NormalizeSubject is
	// used when nil.
	Normalize func(string) string

	idTable map[string]*Container
	order   []*Container
}

// NewThreader returns a Threader with the default settings: no pruning, no
// input limit and NormalizeSubject for subject grouping.
func NewThreader() *Threader {
	return &Threader{Normalize: NormalizeSubject}
}

// Thread links msgs together and returns the root set, pruned if t.Prune is
// set. Roots are in order of first appearance of their id, either as a
// message or as a reference; sorting is left to the caller.
func (t *Threader) Thread(msgs []*Message) ([]*Container, error) {
	if err := t.Link(msgs); err != nil {
		return nil, err
	}
	roots := t.RootSet()
	if t.Prune {
		roots = Prune(roots)
	}
	return roots, nil
}

// ThreadBySubject runs every phase of the algorithm: linking, root set
// extraction, pruning and subject grouping. It returns the subject table
// built by GroupBySubject.
func (t *Threader) ThreadBySubject(msgs []*Message) (map[string]*Container, error) {
	if err := t.Link(msgs); err != nil {
		return nil, err
	}
	roots := Prune(t.RootSet())
	return GroupBySubject(roots, t.Normalize), nil
}

// Link builds the id table from msgs, creating a container for each message
// and a dummy container for each referenced id that is not a message, and
// links the containers according to the references of each message.
//
// Input is validated before anything is linked: every message must be non
// nil with a non empty id. When two messages share an id the later one wins.
func (t *Threader) Link(msgs []*Message) error {
	if t.MaxMessages > 0 && len(msgs) > t.MaxMessages {
		return fmt.Errorf("%d messages, limit is %d: %w",
			len(msgs), t.MaxMessages, ErrTooManyMessages)
	}
	for i, msg := range msgs {
		if msg == nil || msg.Id == "" {
			return fmt.Errorf("message %d: %w", i, ErrMissingID)
		}
	}

	t.idTable = make(map[string]*Container, len(msgs))
	t.order = make([]*Container, 0, len(msgs))
	for _, msg := range msgs {
		t.link(msg)
	}
	logger.Tracef("linked %d messages into %d containers",
		len(msgs), len(t.order))
	return nil
}

// RootSet returns the containers which have no parent, in the order their
// ids were first seen. The id table is released afterwards, so RootSet must
// be called once per Link.
func (t *Threader) RootSet() []*Container {
	roots := make([]*Container, 0)
	for _, c := range t.order {
		if c.parent == nil {
			roots = append(roots, c)
		}
	}

	// We no longer need the table, the caller owns the forest now
	//
	t.idTable = nil
	t.order = nil

	return roots
}

// container returns the container for id, creating an empty one if we do
// not have it yet.
func (t *Threader) container(id string) *Container {
	c, ok := t.idTable[id]
	if !ok {
		c = newContainer(id)
		t.idTable[id] = c
		t.order = append(t.order, c)
	}
	return c
}

func (t *Threader) link(msg *Message) {
	c := t.container(msg.Id)
	if c.message != nil {
		logger.Debugf("duplicate message id <%s>, keeping the last one",
			msg.Id)
	}
	c.message = msg

	// If we have references A B C D, make D be a child of C, etc. The
	// latest message to state a relationship wins, unless it would make a
	// container its own ancestor.
	//
	var prev *Container
	for _, ref := range msg.References {
		if ref == "" {
			continue
		}
		rc := t.container(ref)
		if prev != nil && rc != c && canLink(prev, rc) {
			prev.AddChild(rc)
		}
		prev = rc
	}

	// prev is now the container of the last reference. Make it the parent
	// of this message.
	//
	if prev != nil && canLink(prev, c) {
		prev.AddChild(c)
	}
}

// canLink reports whether child may be put under parent without creating a
// loop.
func canLink(parent, child *Container) bool {
	return parent != child && !child.HasDescendant(parent)
}

// Prune walks through the threads and discards empty containers. Dummies
// with no children are dropped. Dummies with a single child, or that are not
// at the root level, are replaced by their children. After calling this, the
// only dummies left are roots with at least two children.
func Prune(roots []*Container) []*Container {
	pruned := make([]*Container, 0, len(roots))
	for _, root := range roots {
		pruned = append(pruned, pruneContainer(root)...)
	}
	logger.Tracef("pruned %d roots down to %d", len(roots), len(pruned))
	return pruned
}

// pruneContainer prunes the children of c and returns what should take the
// place of c in its parent's child list.
func pruneContainer(c *Container) []*Container {
	kids := c.children
	c.children = make([]*Container, 0, len(kids))
	for _, kid := range kids {
		for _, k := range pruneContainer(kid) {
			k.parent = c
			c.children = append(c.children, k)
		}
	}

	if !c.IsDummy() {
		return []*Container{c}
	}

	switch {
	case len(c.children) == 0:
		// Empty container with no kids. Nuke it.
		//
		// These show up when two messages have References lines that
		// disagree, e.g. A has refs 1 2 3 and B has refs 1 3.
		//
		c.parent = nil
		return nil
	case len(c.children) == 1 || c.parent != nil:
		// Promote the kids to this level. Don't do this at the root level
		// unless there is only one kid.
		//
		promoted := c.children
		for _, k := range promoted {
			k.parent = c.parent
		}
		c.children = nil
		c.parent = nil
		return promoted
	}
	return []*Container{c}
}

// GroupBySubject merges the members of roots that share a normalized subject
// and returns the resulting table, keyed by normalized subject. Roots whose
// subject normalizes to the empty string are not grouped and do not appear
// in the table.
//
// roots should have been pruned first: a dummy root is represented by the
// subject of its first child.
func GroupBySubject(roots []*Container, normalize func(string) string) map[string]*Container {
	_, table := gatherSubjects(roots, normalize)
	return table
}

// GatherSubjects performs the same merge as GroupBySubject but returns the new
// root set, in the order of roots. This is so that messages which don't have
// References headers at all still get threaded, to the extent possible.
func GatherSubjects(roots []*Container, normalize func(string) string) []*Container {
	gathered, _ := gatherSubjects(roots, normalize)
	return gathered
}

func gatherSubjects(
	roots []*Container, normalize func(string) string,
) ([]*Container, map[string]*Container) {
	if normalize == nil {
		normalize = NormalizeSubject
	}

	table := make(map[string]*Container)
	subjects := make(map[*Container]string, len(roots))
	for _, c := range roots {
		msg := c.firstMessage()
		if msg == nil {
			continue
		}
		subj := normalize(msg.Subject)
		if subj == "" {
			continue
		}
		subjects[c] = subj
		if old, ok := table[subj]; !ok || preferred(c, old) {
			table[subj] = c
		}
	}

	slots := make([]*Container, len(roots))
	copy(slots, roots)
	slot := make(map[*Container]int, len(roots))
	for i, c := range roots {
		slot[c] = i
	}

	for _, c := range roots {
		subj, ok := subjects[c]
		if !ok || c.parent != nil {
			continue
		}
		old := table[subj]
		if old == c {
			continue
		}

		switch {
		case old.IsDummy() && c.IsDummy():
			// Both dummies, merge them.
			old.adoptChildren(c)
			slots[slot[c]] = nil

		case old.IsDummy():
			old.AddChild(c)
			slots[slot[c]] = nil

		case c.IsDummy(), len(old.message.Subject) > len(c.message.Subject):
			// c is the more interesting root: it takes the place of old
			// in the root set and in the table.
			c.AddChild(old)
			slots[slot[c]] = nil
			slots[slot[old]] = c
			slot[c] = slot[old]
			table[subj] = c

		case len(old.message.Subject) < len(c.message.Subject):
			old.AddChild(c)
			slots[slot[c]] = nil

		default:
			// Neither subject wraps the other. Turn old into a dummy with
			// both messages under it, so that the table still points at the
			// container in the root set. The dummy stands for no message
			// and has no id.
			kept := &Container{message: old.message, forID: old.forID}
			kept.adoptChildren(old)
			old.message = nil
			old.forID = ""
			old.AddChild(kept)
			old.AddChild(c)
			slots[slot[c]] = nil
		}
	}

	gathered := make([]*Container, 0, len(roots))
	for _, c := range slots {
		if c != nil {
			gathered = append(gathered, c)
		}
	}
	logger.Tracef("gathered %d roots into %d by subject",
		len(roots), len(gathered))
	return gathered, table
}

// preferred reports whether c is a better representative of its subject
// than old: dummies win over messages, and among messages the shorter raw
// subject (the one with fewer "Re:") wins.
func preferred(c, old *Container) bool {
	switch {
	case c.IsDummy():
		return !old.IsDummy()
	case old.IsDummy():
		return false
	}
	return len(c.message.Subject) < len(old.message.Subject)
}
