package parse_test

import (
	"testing"

	"git.sr.ht/~nadine/mailthread/lib/parse"
	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
)

func TestCleanRefs(t *testing.T) {
	tests := []struct {
		name     string
		msgID    string
		irt      string
		refs     []string
		expected []string
	}{
		{
			name:     "clean",
			msgID:    "c",
			irt:      "b",
			refs:     []string{"a", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "self reference",
			msgID:    "c",
			refs:     []string{"a", "c", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "duplicates",
			msgID:    "d",
			refs:     []string{"a", "b", "a", "c", "b"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "in-reply-to first",
			msgID:    "d",
			irt:      "c",
			refs:     []string{"c", "a", "b"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "only in-reply-to",
			msgID:    "d",
			irt:      "c",
			refs:     []string{"c"},
			expected: []string{"c"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual := parse.CleanRefs(test.msgID, test.irt, test.refs)
			assert.Equal(t, test.expected, actual)
		})
	}
}

func TestReferences(t *testing.T) {
	var h mail.Header
	assert.Nil(t, parse.References(&h, "self@x"))

	h.Set("In-Reply-To", "<parent@x>")
	assert.Equal(t, []string{"parent@x"}, parse.References(&h, "self@x"))

	h.Set("References", "<root@x> <parent@x> <self@x> <root@x>")
	assert.Equal(t, []string{"root@x", "parent@x"},
		parse.References(&h, "self@x"))
}
