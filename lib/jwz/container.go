// SPDX-License-Identifier: Apache-2.0

package jwz

// Container is a node of the thread forest. It wraps at most one Message; a
// container without a message is a dummy standing in for a message that was
// referenced but never seen.
//
// A container owns its children. The parent pointer is only a back
// reference and is kept in agreement with the parent's child list by
// AddChild and RemoveChild.
type Container struct {
	// message is nil for dummies
	//
	message *Message

	parent   *Container
	children []*Container

	// forID holds the message id this container was created for. For dummies
	// this is the only trace of the message we never got to see.
	//
	forID string
}

func newContainer(id string) *Container {
	return &Container{forID: id}
}

// Message returns the message held by the container, nil for a dummy.
func (c *Container) Message() *Message {
	return c.message
}

// Parent returns the parent container, nil for roots.
func (c *Container) Parent() *Container {
	return c.parent
}

// Children returns the ordered children of the container. The returned slice
// must not be modified; use AddChild and RemoveChild instead.
func (c *Container) Children() []*Container {
	return c.children
}

// ID returns the message id the container stands for. It is empty for the
// dummy made by subject grouping to hold two roots of equal standing.
func (c *Container) ID() string {
	return c.forID
}

// IsDummy reports whether the container holds no message.
func (c *Container) IsDummy() bool {
	return c.message == nil
}

// AddChild makes child the last child of c, detaching it from its previous
// parent first. A child added again to the parent it already has moves to
// the end of the list.
func (c *Container) AddChild(child *Container) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	c.children = append(c.children, child)
	child.parent = c
}

// RemoveChild detaches child from c. It does nothing if child is not one of
// c's children.
func (c *Container) RemoveChild(child *Container) {
	for i, kid := range c.children {
		if kid != child {
			continue
		}
		copy(c.children[i:], c.children[i+1:])
		c.children[len(c.children)-1] = nil
		c.children = c.children[:len(c.children)-1]
		child.parent = nil
		return
	}
}

// HasDescendant returns true if candidate is under c's tree. This is used
// for detecting circularities in the references headers, so it walks the
// tree with an explicit stack and never follows a node twice.
func (c *Container) HasDescendant(candidate *Container) bool {
	if candidate == nil {
		return false
	}
	visited := make(map[*Container]struct{})
	stack := append([]*Container(nil), c.children...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == candidate {
			return true
		}
		if _, seen := visited[node]; seen {
			continue
		}
		visited[node] = struct{}{}
		stack = append(stack, node.children...)
	}
	return false
}

// firstMessage returns the message of c, or for a dummy the message of its
// first child that has one.
func (c *Container) firstMessage() *Message {
	if c.message != nil {
		return c.message
	}
	for _, kid := range c.children {
		if kid.message != nil {
			return kid.message
		}
	}
	return nil
}

// adoptChildren moves every child of from to the end of c's children.
func (c *Container) adoptChildren(from *Container) {
	kids := from.children
	from.children = nil
	for _, kid := range kids {
		kid.parent = nil
		c.AddChild(kid)
	}
}
