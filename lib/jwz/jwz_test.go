// SPDX-License-Identifier: Apache-2.0

package jwz

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, subject string, refs ...string) *Message {
	return &Message{Id: id, Subject: subject, References: refs}
}

// dump renders a forest as "id(child,child)" with a '*' after dummies, which
// keeps the expected shapes readable.
func dump(roots []*Container) string {
	parts := make([]string, 0, len(roots))
	for _, c := range roots {
		s := c.ID()
		if c.IsDummy() {
			s += "*"
		}
		if len(c.children) > 0 {
			s += "(" + dump(c.children) + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ",")
}

// checkForest verifies the invariants that must hold on any threading
// result: parent pointers agree with child lists and there are no loops.
func checkForest(t *testing.T, roots []*Container) {
	t.Helper()
	seen := make(map[*Container]bool)
	var check func(c *Container)
	check = func(c *Container) {
		require.False(t, seen[c], "container %s reachable twice", c.ID())
		seen[c] = true
		assert.False(t, c.HasDescendant(c), "container %s is its own ancestor", c.ID())
		for _, kid := range c.children {
			assert.Same(t, c, kid.parent, "bad parent for %s", kid.ID())
			check(kid)
		}
	}
	for _, r := range roots {
		assert.Nil(t, r.parent, "root %s has a parent", r.ID())
		check(r)
	}
}

func TestThreader_Chain(t *testing.T) {
	roots, err := NewThreader().Thread([]*Message{
		msg("1", "Lunch"),
		msg("2", "Re: Lunch", "1"),
		msg("3", "Re: Re: Lunch", "1", "2"),
	})
	require.NoError(t, err)
	checkForest(t, roots)
	assert.Equal(t, "1(2(3))", dump(roots))
	assert.Equal(t, "Lunch", roots[0].Message().Subject)
}

func TestThreader_MissingParent(t *testing.T) {
	roots, err := NewThreader().Thread([]*Message{msg("4", "Hello", "99")})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.True(t, roots[0].IsDummy())
	assert.Nil(t, roots[0].Message())
	assert.Equal(t, "99", roots[0].ID())
	require.Len(t, roots[0].Children(), 1)
	assert.Equal(t, "4", roots[0].Children()[0].Message().Id)
}

func TestThreader_DuplicateID(t *testing.T) {
	th := NewThreader()
	require.NoError(t, th.Link([]*Message{
		msg("5", "First"),
		msg("5", "Second"),
	}))
	assert.Len(t, th.idTable, 1)
	assert.Equal(t, "Second", th.idTable["5"].Message().Subject)

	roots := th.RootSet()
	require.Len(t, roots, 1)
	assert.Equal(t, "Second", roots[0].Message().Subject)
	assert.Nil(t, th.idTable)
}

func TestThreader_Prune(t *testing.T) {
	th := NewThreader()
	th.Prune = true
	roots, err := th.Thread([]*Message{msg("4", "Hello", "99")})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.False(t, roots[0].IsDummy())
	assert.Equal(t, "4", roots[0].ID())
	assert.Nil(t, roots[0].Parent())
}

func TestThreader_UnprunedByDefault(t *testing.T) {
	roots, err := NewThreader().Thread([]*Message{
		msg("a", "x", "1", "2", "3"),
		msg("b", "y", "1", "3"),
	})
	require.NoError(t, err)
	checkForest(t, roots)
	// 3 moved under 1 when b was linked, leaving 2 as a childless dummy
	assert.Equal(t, "1*(2*,3*(a,b))", dump(roots))
}

func TestThreader_RootOrder(t *testing.T) {
	roots, err := NewThreader().Thread([]*Message{
		msg("c", "third"),
		msg("a", "first"),
		msg("x", "reply", "b"),
	})
	require.NoError(t, err)
	assert.Equal(t, "c,a,b*(x)", dump(roots))
}

func TestThreader_ForwardReference(t *testing.T) {
	// the reply arrives before the message it replies to
	roots, err := NewThreader().Thread([]*Message{
		msg("2", "Re: Lunch", "1"),
		msg("1", "Lunch"),
	})
	require.NoError(t, err)
	checkForest(t, roots)
	require.Len(t, roots, 1)
	assert.Equal(t, "1(2)", dump(roots))
	assert.False(t, roots[0].IsDummy())
}

func TestThreader_Relink(t *testing.T) {
	// a later message states a different parent for 2, the latest wins
	roots, err := NewThreader().Thread([]*Message{
		msg("2", "b", "1"),
		msg("3", "c", "9", "2"),
	})
	require.NoError(t, err)
	checkForest(t, roots)
	assert.Equal(t, "1*,9*(2(3))", dump(roots))
}

func TestThreader_RestatedLink(t *testing.T) {
	// 4 restates that 2 is a child of 1, which moves 2 after 3
	roots, err := NewThreader().Thread([]*Message{
		msg("1", "a"),
		msg("2", "b", "1"),
		msg("3", "c", "1"),
		msg("4", "d", "1", "2"),
	})
	require.NoError(t, err)
	checkForest(t, roots)
	assert.Equal(t, "1(3,2(4))", dump(roots))
}

func TestThreader_Cycles(t *testing.T) {
	tests := []struct {
		name     string
		messages []*Message
		expected string
	}{
		{
			name: "self reference",
			messages: []*Message{
				msg("1", "a", "1"),
			},
			expected: "1",
		},
		{
			name: "self in the middle",
			messages: []*Message{
				msg("1", "a", "0", "1", "2"),
			},
			expected: "1(2*),0*",
		},
		{
			name: "mutual replies",
			messages: []*Message{
				msg("1", "a", "2"),
				msg("2", "b", "1"),
			},
			expected: "2(1)",
		},
		{
			name: "loop in references",
			messages: []*Message{
				msg("x", "a", "1", "2", "1"),
			},
			expected: "1*(2*,x)",
		},
		{
			name: "repeated reference",
			messages: []*Message{
				msg("x", "a", "1", "1", "2"),
			},
			expected: "1*(2*(x))",
		},
		{
			name: "descendant as parent",
			messages: []*Message{
				msg("1", "a"),
				msg("2", "b", "1"),
				msg("3", "c", "1", "2"),
				msg("1", "a", "3"),
			},
			expected: "1(2(3))",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			roots, err := NewThreader().Thread(test.messages)
			require.NoError(t, err)
			checkForest(t, roots)
			assert.Equal(t, test.expected, dump(roots))
		})
	}
}

func TestThreader_InvalidInput(t *testing.T) {
	_, err := NewThreader().Thread([]*Message{msg("1", "a"), msg("", "b")})
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Contains(t, err.Error(), "message 1")

	_, err = NewThreader().Thread([]*Message{msg("1", "a"), nil})
	assert.ErrorIs(t, err, ErrMissingID)

	th := NewThreader()
	th.MaxMessages = 1
	_, err = th.Thread([]*Message{msg("1", "a"), msg("2", "b")})
	assert.ErrorIs(t, err, ErrTooManyMessages)

	roots, err := NewThreader().Thread(nil)
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestThreader_Random(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 1 + r.Intn(40)
		msgs := make([]*Message, 0, n)
		for i := 0; i < n; i++ {
			refs := make([]string, r.Intn(5))
			for j := range refs {
				refs[j] = fmt.Sprintf("m%d", r.Intn(n+5))
			}
			msgs = append(msgs, msg(fmt.Sprintf("m%d", r.Intn(n+5)), "s", refs...))
		}

		th := NewThreader()
		roots, err := th.Thread(msgs)
		require.NoError(t, err)
		checkForest(t, roots)

		// every distinct id shows up exactly once with its last message
		last := make(map[string]*Message)
		for _, m := range msgs {
			last[m.Id] = m
		}
		found := make(map[string]*Message)
		_ = Walk(roots, func(c *Container, _ int) error {
			if !c.IsDummy() {
				_, dup := found[c.Message().Id]
				assert.False(t, dup)
				found[c.Message().Id] = c.Message()
			}
			return nil
		})
		assert.Equal(t, last, found)

		pruned := Prune(roots)
		checkForest(t, pruned)
		assert.Equal(t, len(last), Count(pruned))
		_ = Walk(pruned, func(c *Container, depth int) error {
			if c.IsDummy() {
				assert.Zero(t, depth)
				assert.GreaterOrEqual(t, len(c.Children()), 2)
			}
			return nil
		})

		gathered := GatherSubjects(pruned, NormalizeSubject)
		checkForest(t, gathered)
		assert.Equal(t, len(last), Count(gathered))
	}
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name     string
		messages []*Message
		expected string
	}{
		{
			name:     "single child dummy root",
			messages: []*Message{msg("a", "x", "1")},
			expected: "a",
		},
		{
			name: "dummy root with two children",
			messages: []*Message{
				msg("a", "x", "1"),
				msg("b", "y", "1"),
			},
			expected: "1*(a,b)",
		},
		{
			name: "nested dummies",
			messages: []*Message{
				msg("r", "x"),
				msg("a", "x", "r", "1"),
				msg("b", "x", "r", "1"),
			},
			expected: "r(a,b)",
		},
		{
			name: "childless dummy dropped",
			messages: []*Message{
				msg("a", "x", "1", "2", "3"),
				msg("b", "y", "1", "3"),
			},
			expected: "1*(a,b)",
		},
		{
			name: "dummy chain",
			messages: []*Message{
				msg("a", "x", "1", "2", "3"),
			},
			expected: "a",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			th := NewThreader()
			th.Prune = true
			roots, err := th.Thread(test.messages)
			require.NoError(t, err)
			checkForest(t, roots)
			assert.Equal(t, test.expected, dump(roots))
		})
	}
}

func TestGroupBySubject(t *testing.T) {
	tests := []struct {
		name     string
		messages []*Message
		expected string
		keys     []string
	}{
		{
			name: "reply without references",
			messages: []*Message{
				msg("2", "Re: Lunch"),
				msg("1", "Lunch"),
			},
			expected: "1(2)",
			keys:     []string{"Lunch"},
		},
		{
			name: "shorter subject adopts",
			messages: []*Message{
				msg("1", "Lunch"),
				msg("2", "[coders] Re: Lunch"),
			},
			expected: "1(2)",
			keys:     []string{"Lunch"},
		},
		{
			name: "neither wraps the other",
			messages: []*Message{
				msg("1", "Lunch"),
				msg("2", "Lunch"),
			},
			expected: "*(1,2)",
			keys:     []string{"Lunch"},
		},
		{
			name: "dummy wins",
			messages: []*Message{
				msg("3", "Lunch"),
				msg("1", "Re: Lunch", "0"),
				msg("2", "Re: Lunch", "0"),
			},
			expected: "0*(1,2,3)",
			keys:     []string{"Lunch"},
		},
		{
			name: "two dummies",
			messages: []*Message{
				msg("1", "Re: Lunch", "0"),
				msg("2", "Re: Lunch", "0"),
				msg("3", "Re: Lunch", "9"),
				msg("4", "Re: Lunch", "9"),
			},
			expected: "0*(1,2,3,4)",
			keys:     []string{"Lunch"},
		},
		{
			name: "empty subjects left alone",
			messages: []*Message{
				msg("1", ""),
				msg("2", "Re:"),
				msg("3", "Dinner"),
			},
			expected: "1,2,3",
			keys:     []string{"Dinner"},
		},
		{
			name: "threaded replies keep their parent",
			messages: []*Message{
				msg("1", "Lunch"),
				msg("2", "Re: Lunch", "1"),
				msg("3", "Re: Re: Lunch"),
			},
			expected: "1(2,3)",
			keys:     []string{"Lunch"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			th := NewThreader()
			th.Prune = true
			roots, err := th.Thread(test.messages)
			require.NoError(t, err)

			gathered := GatherSubjects(roots, nil)
			checkForest(t, gathered)
			assert.Equal(t, test.expected, dump(gathered))
			assert.Equal(t, Count(roots), Count(gathered))

			table, err := NewThreader().ThreadBySubject(test.messages)
			require.NoError(t, err)
			keys := make([]string, 0, len(table))
			for k, c := range table {
				keys = append(keys, k)
				assert.Nil(t, c.Parent(), "table entry for %q is not a root", k)
			}
			assert.ElementsMatch(t, test.keys, keys)
		})
	}
}

func TestGroupBySubject_ShortestWins(t *testing.T) {
	// the representative does not depend on the order of the roots
	a := &Container{message: msg("a", "Re: Lunch"), forID: "a"}
	b := &Container{message: msg("b", "Lunch"), forID: "b"}
	roots := GatherSubjects([]*Container{a, b}, nil)
	assert.Equal(t, "b(a)", dump(roots))
}

func TestGroupBySubject_EqualSubjects(t *testing.T) {
	roots := GatherSubjects([]*Container{
		{message: msg("1", "Lunch"), forID: "1"},
		{message: msg("2", "Lunch"), forID: "2"},
	}, nil)
	checkForest(t, roots)
	require.Len(t, roots, 1)
	assert.True(t, roots[0].IsDummy())
	assert.Empty(t, roots[0].ID())

	// each message id shows up once, on the container holding the message
	seen := make(map[string]bool)
	_ = Walk(roots, func(c *Container, _ int) error {
		if c.ID() == "" {
			return nil
		}
		assert.False(t, seen[c.ID()], "id %s seen twice", c.ID())
		assert.False(t, c.IsDummy())
		seen[c.ID()] = true
		return nil
	})
	assert.Len(t, seen, 2)
}

func TestThreadBySubject_Normalizer(t *testing.T) {
	msgs := []*Message{
		msg("1", "Lunch"),
		msg("2", "Fwd: Lunch"),
	}

	table, err := NewThreader().ThreadBySubject(msgs)
	require.NoError(t, err)
	assert.Len(t, table, 2)

	th := NewThreader()
	th.Normalize = BaseSubject
	table, err = th.ThreadBySubject(msgs)
	require.NoError(t, err)
	require.Len(t, table, 1)
	for _, c := range table {
		assert.Equal(t, "1(2)", dump([]*Container{c}))
	}
}

func ExampleThreader_Thread() {
	messages := []*Message{
		{Id: "1", Subject: "Lunch"},
		{Id: "2", Subject: "Re: Lunch", References: []string{"1"}},
		{Id: "3", Subject: "Re: Re: Lunch", References: []string{"1", "2"}},
		{Id: "4", Subject: "Re: Dinner", References: []string{"99"}},
	}

	threader := NewThreader()
	roots, err := threader.Thread(messages)
	if err != nil {
		fmt.Printf("func Thread() error = %#v", err)
		return
	}

	_ = Walk(roots, func(c *Container, depth int) error {
		indent := strings.Repeat("  ", depth)
		if c.IsDummy() {
			fmt.Printf("%s<%s> (missing)\n", indent, c.ID())
		} else {
			fmt.Printf("%s%s\n", indent, c.Message().Subject)
		}
		return nil
	})

	// Output:
	// Lunch
	//   Re: Lunch
	//     Re: Re: Lunch
	// <99> (missing)
	//   Re: Dinner
}
