package format

import (
	"fmt"
	"io"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"github.com/mattn/go-runewidth"
)

const (
	branch     = "├─>"
	lastBranch = "└─>"
	pipe       = "│  "
	blank      = "   "

	groupLabel = "(same subject)"
)

type TreeOptions struct {
	// IndexFormat is the format of each message line, see
	// ParseMessageFormat.
	IndexFormat string
	// TimestampFormat is a time.Format layout used for %d and %D.
	TimestampFormat string
	// Width truncates the lines to that many cells. 0 disables truncation.
	Width int
}

// Tree writes one line per container of the forest, children below their
// parent with the thread drawn in front of them. Missing messages are
// rendered as their id between angle brackets. Dummies without an id only
// group messages of the same subject and render as a fixed label.
func Tree(w io.Writer, roots []*jwz.Container, opts TreeOptions) error {
	tw := &treeWriter{w: w, opts: opts}
	for _, root := range roots {
		if err := tw.write(root, "", ""); err != nil {
			return err
		}
	}
	return nil
}

type treeWriter struct {
	w    io.Writer
	opts TreeOptions
}

func (tw *treeWriter) write(c *jwz.Container, prefix, indent string) error {
	line, err := tw.line(c)
	if err != nil {
		return err
	}
	line = prefix + line
	if tw.opts.Width > 0 {
		line = runewidth.Truncate(line, tw.opts.Width, "…")
	}
	if _, err := fmt.Fprintln(tw.w, line); err != nil {
		return err
	}
	kids := c.Children()
	for i, kid := range kids {
		if i == len(kids)-1 {
			err = tw.write(kid, indent+lastBranch, indent+blank)
		} else {
			err = tw.write(kid, indent+branch, indent+pipe)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (tw *treeWriter) line(c *jwz.Container) (string, error) {
	switch {
	case c.IsDummy() && c.ID() == "":
		return groupLabel, nil
	case c.IsDummy():
		return fmt.Sprintf("<%s> (missing)", c.ID()), nil
	}
	f, args, err := ParseMessageFormat(tw.opts.IndexFormat,
		tw.opts.TimestampFormat, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(f, args...), nil
}
