package format

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"gopkg.in/yaml.v3"
)

// Node is the serialized form of a container and its descendants. ID is
// empty for a dummy that only groups messages by subject.
type Node struct {
	ID       string     `json:"id,omitempty" yaml:"id,omitempty"`
	Subject  string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	From     string     `json:"from,omitempty" yaml:"from,omitempty"`
	Date     *time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	Dummy    bool       `json:"dummy,omitempty" yaml:"dummy,omitempty"`
	Children []*Node    `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewNodes converts a forest into nodes.
func NewNodes(roots []*jwz.Container) []*Node {
	nodes := make([]*Node, 0, len(roots))
	for _, c := range roots {
		nodes = append(nodes, newNode(c))
	}
	return nodes
}

func newNode(c *jwz.Container) *Node {
	n := &Node{ID: c.ID(), Dummy: c.IsDummy()}
	if msg := c.Message(); msg != nil {
		n.ID = msg.Id
		n.Subject = msg.Subject
		n.From = msg.From
		if !msg.Date.IsZero() {
			d := msg.Date
			n.Date = &d
		}
	}
	if kids := c.Children(); len(kids) > 0 {
		n.Children = NewNodes(kids)
	}
	return n
}

// Encode writes the forest to w as a list of nested nodes, in json or yaml.
func Encode(w io.Writer, roots []*jwz.Container, format string) error {
	nodes := NewNodes(roots)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nodes); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
