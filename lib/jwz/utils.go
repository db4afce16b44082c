// SPDX-License-Identifier: Apache-2.0

package jwz

import (
	"errors"
	"sort"
)

// LessFunc reports whether the container a must sort before the container b.
// Your function should be able to handle dummy containers in some sensible
// way, such as using the first child of the dummy for the sort parameters.
//
// LessFunc must describe a transitive ordering.
type LessFunc func(a, b *Container) bool

// WalkFunc is called by Walk for every container, with the depth of the
// container below the roots given to Walk (roots are at depth 0).
//
// Returning ErrSkipThread skips the children of the container. Any other
// error stops the walk and is returned by Walk.
type WalkFunc func(c *Container, depth int) error

// ErrSkipThread can be returned by a WalkFunc to avoid descending into the
// children of the current container.
var ErrSkipThread = errors.New("skip this thread")

// Count returns the number of messages in the given threads. Dummy
// placeholder nodes are excluded from the count.
func Count(roots []*Container) int {
	n := 0
	_ = Walk(roots, func(c *Container, _ int) error {
		if !c.IsDummy() {
			n++
		}
		return nil
	})
	return n
}

// Sort will create order from the chaos created by threading a set of
// emails. It sorts roots in place, and the children of every container,
// without changing which container is the parent of which.
//
// Children are sorted before their parents are compared, so a LessFunc that
// looks at the first child of a dummy sees the already sorted children. The
// sort is stable: containers that compare equal keep their threading order.
func Sort(roots []*Container, less LessFunc) {
	for _, c := range roots {
		if len(c.children) > 0 {
			Sort(c.children, less)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return less(roots[i], roots[j])
	})
}

// Walk calls f for each container of the given threads, depth first, parents
// before their children.
func Walk(roots []*Container, f WalkFunc) error {
	for _, c := range roots {
		if err := walk(c, f, 0); err != nil {
			return err
		}
	}
	return nil
}

func walk(c *Container, f WalkFunc, depth int) error {
	err := f(c, depth)
	if errors.Is(err, ErrSkipThread) {
		return nil
	} else if err != nil {
		return err
	}
	for _, kid := range c.children {
		if err := walk(kid, f, depth+1); err != nil {
			return err
		}
	}
	return nil
}
