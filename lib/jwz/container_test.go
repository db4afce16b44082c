// SPDX-License-Identifier: Apache-2.0

package jwz

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainer_AddChild(t *testing.T) {
	a, b, c := newContainer("a"), newContainer("b"), newContainer("c")

	a.AddChild(b)
	a.AddChild(c)
	assert.Equal(t, []*Container{b, c}, a.Children())
	assert.Same(t, a, b.Parent())

	// re-adding moves to the end
	a.AddChild(b)
	assert.Equal(t, []*Container{c, b}, a.Children())
	assert.Same(t, a, b.Parent())

	// moving to another parent detaches first
	c.AddChild(b)
	assert.Equal(t, []*Container{c}, a.Children())
	assert.Equal(t, []*Container{b}, c.Children())
	assert.Same(t, c, b.Parent())
}

func TestContainer_RemoveChild(t *testing.T) {
	a, b, c := newContainer("a"), newContainer("b"), newContainer("c")
	a.AddChild(b)

	a.RemoveChild(c)
	assert.Equal(t, []*Container{b}, a.Children())

	a.RemoveChild(b)
	assert.Empty(t, a.Children())
	assert.Nil(t, b.Parent())
}

func TestContainer_IsDummy(t *testing.T) {
	c := newContainer("x")
	assert.True(t, c.IsDummy())
	c.message = &Message{Id: "x"}
	assert.False(t, c.IsDummy())
}

func TestContainer_HasDescendant(t *testing.T) {
	root := newContainer("root")
	prev := root
	var deepest *Container
	for i := 0; i < 100000; i++ {
		deepest = newContainer(fmt.Sprint(i))
		prev.AddChild(deepest)
		prev = deepest
	}
	sibling := newContainer("sibling")
	root.AddChild(sibling)

	assert.True(t, root.HasDescendant(deepest))
	assert.True(t, root.HasDescendant(sibling))
	assert.False(t, deepest.HasDescendant(root))
	assert.False(t, root.HasDescendant(root))
	assert.False(t, root.HasDescendant(nil))
	assert.False(t, sibling.HasDescendant(deepest))
}
