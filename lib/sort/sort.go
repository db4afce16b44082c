package sort

import (
	"errors"
	"fmt"
	"strings"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"github.com/google/shlex"
)

type SortField int

const (
	SortArrival SortField = iota
	SortDate
	SortFrom
	SortSubject
	SortID
)

func (f SortField) String() string {
	switch f {
	case SortArrival:
		return "arrival"
	case SortDate:
		return "date"
	case SortFrom:
		return "from"
	case SortSubject:
		return "subject"
	case SortID:
		return "id"
	}
	return fmt.Sprintf("SortField(%d)", int(f))
}

type Criterion struct {
	Field   SortField
	Reverse bool
}

func (c *Criterion) String() string {
	if c.Reverse {
		return "-r " + c.Field.String()
	}
	return c.Field.String()
}

// ParseSortCriteria splits s shell-style and parses the result with
// GetSortCriteria.
func ParseSortCriteria(s string) ([]*Criterion, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return nil, err
	}
	return GetSortCriteria(args)
}

func GetSortCriteria(args []string) ([]*Criterion, error) {
	var sortCriteria []*Criterion
	reverse := false
	for _, arg := range args {
		if arg == "-r" {
			reverse = true
			continue
		}
		field, err := parseSortField(arg)
		if err != nil {
			return nil, err
		}
		sortCriteria = append(sortCriteria, &Criterion{
			Field:   field,
			Reverse: reverse,
		})
		reverse = false
	}
	if reverse {
		return nil, errors.New("Expected argument to reverse")
	}
	return sortCriteria, nil
}

func parseSortField(arg string) (SortField, error) {
	switch strings.ToLower(arg) {
	case "arrival":
		return SortArrival, nil
	case "date":
		return SortDate, nil
	case "from":
		return SortFrom, nil
	case "subject":
		return SortSubject, nil
	case "id":
		return SortID, nil
	default:
		return SortArrival, fmt.Errorf("%v is not a valid sort criterion", arg)
	}
}

// Less builds a jwz.LessFunc out of criteria, the first criterion being the
// primary one. arrival is the order in which the messages were read, used
// by the arrival field. Containers that compare equal on every criterion
// keep their order since jwz.Sort is stable.
//
// A dummy container is sorted by its first real descendant. Containers with
// no message at all sort last whatever the direction.
func Less(criteria []*Criterion, arrival []*jwz.Message) jwz.LessFunc {
	position := make(map[*jwz.Message]int, len(arrival))
	for i, msg := range arrival {
		position[msg] = i
	}
	return func(a, b *jwz.Container) bool {
		ma, mb := representative(a), representative(b)
		if ma == nil || mb == nil {
			return ma != nil
		}
		for _, crit := range criteria {
			var c int
			switch crit.Field {
			case SortArrival:
				c = compareInts(position[ma], position[mb])
			case SortDate:
				switch {
				case ma.Date.Before(mb.Date):
					c = -1
				case mb.Date.Before(ma.Date):
					c = 1
				}
			case SortFrom:
				c = strings.Compare(strings.ToLower(ma.From),
					strings.ToLower(mb.From))
			case SortSubject:
				c = strings.Compare(subjectKey(ma.Subject),
					subjectKey(mb.Subject))
			case SortID:
				c = strings.Compare(ma.Id, mb.Id)
			}
			if crit.Reverse {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	}
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func subjectKey(s string) string {
	return strings.ToLower(jwz.NormalizeSubject(s))
}

// representative returns the message c stands for when sorting: its own, or
// the first message found below it.
func representative(c *jwz.Container) *jwz.Message {
	var msg *jwz.Message
	_ = jwz.Walk([]*jwz.Container{c}, func(c *jwz.Container, _ int) error {
		if msg != nil {
			return jwz.ErrSkipThread
		}
		msg = c.Message()
		return nil
	})
	return msg
}
