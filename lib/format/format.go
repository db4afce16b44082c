package format

import (
	"errors"
	"strings"
	"unicode"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"github.com/emersion/go-message/mail"
)

// ParseMessageFormat turns a printf-like index format into a fmt format
// string and its arguments for the message of c. Flags, width and precision
// are passed through to fmt. Dummy containers only have an id; their other
// fields expand to empty strings.
func ParseMessageFormat(format string, timestampformat string,
	c *jwz.Container) (string, []any, error) {
	retval := make([]byte, 0, len(format))
	var args []any

	msg := c.Message()
	if msg == nil {
		msg = &jwz.Message{Id: c.ID()}
	}

	var r rune
	for i, ni := 0, 0; i < len(format); {
		ni = strings.IndexByte(format[i:], '%')
		if ni < 0 {
			ni = len(format)
			retval = append(retval, []byte(format[i:ni])...)
			break
		}
		ni += i + 1
		// Check for fmt flags
		if ni == len(format) {
			goto handle_end_error
		}
		r = rune(format[ni])
		if r == '+' || r == '-' || r == '#' || r == ' ' || r == '0' {
			ni++
		}

		// Check for precision and width
		for ni < len(format) && unicode.IsDigit(rune(format[ni])) {
			ni++
		}
		if ni < len(format) && format[ni] == '.' {
			ni++
			for ni < len(format) && unicode.IsDigit(rune(format[ni])) {
				ni++
			}
		}

		retval = append(retval, []byte(format[i:ni])...)
		// Get final format verb
		if ni == len(format) {
			goto handle_end_error
		}
		r = rune(format[ni])
		switch r {
		case '%':
			retval = append(retval, '%')
		case 'a':
			retval = append(retval, 's')
			args = append(args, senderAddress(msg.From))
		case 'C':
			retval = append(retval, 'd')
			args = append(args, jwz.Count([]*jwz.Container{c}))
		case 'd':
			retval = append(retval, 's')
			args = append(args, formatDate(msg, timestampformat, false))
		case 'D':
			retval = append(retval, 's')
			args = append(args, formatDate(msg, timestampformat, true))
		case 'f':
			retval = append(retval, 's')
			args = append(args, msg.From)
		case 'i':
			retval = append(retval, 's')
			args = append(args, msg.Id)
		case 'n':
			retval = append(retval, 's')
			args = append(args, senderName(msg.From))
		case 'r':
			retval = append(retval, 'd')
			args = append(args, len(msg.References))
		case 's':
			retval = append(retval, 's')
			args = append(args, msg.Subject)
		case 'S':
			retval = append(retval, 's')
			args = append(args, jwz.NormalizeSubject(msg.Subject))
		default:
			// Just ignore it and print as is
			// so %k in index format becomes %%k to Printf
			retval = append(retval, '%')
			retval = append(retval, byte(r))
		}
		i = ni + 1
	}

	return string(retval), args, nil

handle_end_error:
	return "", nil,
		errors.New("reached end of string while parsing message format")
}

func formatDate(msg *jwz.Message, timestampformat string, local bool) string {
	if msg.Date.IsZero() {
		return ""
	}
	if local {
		return msg.Date.Local().Format(timestampformat)
	}
	return msg.Date.UTC().Format(timestampformat)
}

func senderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	return addr.Address
}

func senderName(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}
