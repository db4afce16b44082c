package search

import (
	"testing"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forest(t *testing.T) []*jwz.Container {
	t.Helper()
	roots, err := jwz.NewThreader().Thread([]*jwz.Message{
		{Id: "1", Subject: "Lunch on friday", From: "Alice <alice@example.org>"},
		{Id: "2", Subject: "Re: Lunch on friday", From: "Bob <bob@example.org>", References: []string{"1"}},
		{Id: "3", Subject: "[golang-nuts] Generics", From: "Carol <carol@example.org>"},
		{Id: "4", Subject: "Re: Release notes", From: "Dave <dave@example.org>", References: []string{"gone"}},
	})
	require.NoError(t, err)
	require.Len(t, roots, 3)
	return roots
}

func ids(roots []*jwz.Container) []string {
	res := make([]string, 0, len(roots))
	for _, r := range roots {
		res = append(res, r.ID())
	}
	return res
}

func TestFilter(t *testing.T) {
	tests := []struct {
		pattern string
		roots   []string
	}{
		{"", []string{"1", "3", "gone"}},
		{"lunch", []string{"1"}},
		{"LNCH", []string{"1"}},
		{"bob", []string{"1"}},
		{"generics", []string{"3"}},
		{"golang-nuts", []string{}},
		{"relnotes", []string{"gone"}},
		{"re:", []string{}},
		{"zzz", []string{}},
	}
	for _, test := range tests {
		t.Run(test.pattern, func(t *testing.T) {
			res := Filter(forest(t), test.pattern, nil)
			assert.Equal(t, test.roots, ids(res))
		})
	}
}

func TestFilterNormalizer(t *testing.T) {
	identity := func(s string) string { return s }
	res := Filter(forest(t), "golang-nuts", identity)
	assert.Equal(t, []string{"3"}, ids(res))
}

func TestFilterKeepsWholeThread(t *testing.T) {
	res := Filter(forest(t), "bob", nil)
	require.Len(t, res, 1)
	require.Len(t, res[0].Children(), 1)
	assert.Equal(t, "2", res[0].Children()[0].ID())
}

func TestMatchMessage(t *testing.T) {
	assert.False(t, MatchMessage(nil, "x", nil))
	msg := &jwz.Message{Subject: "Re: Lunch", From: "alice@example.org"}
	assert.True(t, MatchMessage(msg, "lunch", nil))
	assert.True(t, MatchMessage(msg, "example", nil))
	assert.False(t, MatchMessage(msg, "re:", nil))
	assert.True(t, MatchMessage(msg, "re:", func(s string) string { return s }))
}
