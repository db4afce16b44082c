package rfc822

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"time"

	"git.sr.ht/~nadine/mailthread/lib/jwz"
	"git.sr.ht/~nadine/mailthread/lib/log"
	"git.sr.ht/~nadine/mailthread/lib/parse"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// RFC 1123Z regexp
var dateRe = regexp.MustCompile(`(((Mon|Tue|Wed|Thu|Fri|Sat|Sun))[,]?\s[0-9]{1,2})\s` +
	`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s` +
	`([0-9]{4})\s([0-9]{2}):([0-9]{2})(:([0-9]{2}))?\s([\+|\-][0-9]{4})`)

// ErrNoMessageID is returned for messages which cannot be threaded because
// they have no usable Message-Id header.
var ErrNoMessageID = errors.New("no Message-Id header")

// ReadMessage reads the header of the message from r and converts it into a
// message ready for threading. The body is not read.
func ReadMessage(r io.Reader) (*jwz.Message, error) {
	entity, err := message.Read(r)
	if message.IsUnknownCharset(err) {
		log.Warnf("unknown charset encountered")
	} else if err != nil {
		return nil, fmt.Errorf("could not read message: %w", err)
	}
	return MessageFromHeader(&mail.Header{Header: entity.Header})
}

// MessageFromHeader builds a message for threading out of an email header.
// Malformed fields are recovered from as far as possible; only a missing
// Message-Id is an error.
func MessageFromHeader(h *mail.Header) (*jwz.Message, error) {
	msgID, err := h.MessageID()
	if err != nil || msgID == "" {
		if err != nil {
			log.Errorf("invalid Message-ID header: %v", err)
		}
		// proper parsing failed, so fall back to whatever is there
		msgID = strings.TrimSpace(h.Get("message-id"))
		msgID = strings.TrimSuffix(strings.TrimPrefix(msgID, "<"), ">")
	}
	if msgID == "" {
		return nil, ErrNoMessageID
	}

	subj, err := h.Subject()
	if err != nil {
		log.Errorf("could not decode subject: %v", err)
		subj = h.Get("Subject")
	}

	date, err := parseDate(h)
	if err != nil {
		// Date parsing errors are fairly common and it's better to be
		// slightly off than to not be able to thread the mails at all
		log.Debugf("<%s>: invalid Date header: %v", msgID, err)
	}

	var from string
	if addrs := parseAddressList(h, "from"); len(addrs) > 0 {
		from = formatAddress(addrs[0])
	}

	return &jwz.Message{
		Id:         msgID,
		References: parse.References(h, msgID),
		Subject:    subj,
		Date:       date,
		From:       from,
	}, nil
}

// formatAddress is mail.Address.String without the RFC 2047 encoding of the
// name, since the result is only ever displayed.
func formatAddress(a *mail.Address) string {
	switch {
	case a.Address == "":
		return a.Name
	case a.Name == "":
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}

// If the date is formatted like ...... -0500 (EST), parser takes the EST part
// and ignores the numeric offset. Then it might easily fail to guess what EST
// means unless the proper locale is loaded. This function checks that, so such
// time values can be safely ignored
func isDateOK(t time.Time) bool {
	name, offset := t.Zone()

	// non-zero offsets are fine
	if offset != 0 {
		return true
	}

	// zero offset is ok if that's UTC or GMT
	if name == "UTC" || name == "GMT" || name == "" {
		return true
	}

	// otherwise this date should not be trusted
	return false
}

// parseDate tries to parse the date from the Date header with non std formats
// if this fails it tries to parse the received header as well
func parseDate(h *mail.Header) (time.Time, error) {
	// here we store the best parsed time we have so far
	// if we find no "correct" time, we'll use that
	bestDate := time.Time{}

	// trying the easy way
	t, err := h.Date()
	if err == nil {
		if isDateOK(t) {
			return t, nil
		}
		bestDate = t
	}
	text := h.Get("date")

	layouts := []string{
		// X-Mailer: EarthLink Zoo Mail 1.0
		"Mon, _2 Jan 2006 15:04:05 -0700 (GMT-07:00)",
	}
	if text != "" {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, text); err == nil {
				if isDateOK(t) {
					return t, nil
				}
				bestDate = t
			}
		}
	}

	// still no success, try the received header
	t, err = parseReceivedHeader(h)
	if err == nil {
		if isDateOK(t) {
			return t, nil
		}
		bestDate = t
	}

	// do we have at least something?
	if !bestDate.IsZero() {
		return bestDate, nil
	}

	// sad...
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", text)
}

func parseReceivedHeader(h *mail.Header) (time.Time, error) {
	guess, err := h.Text("received")
	if err != nil {
		return time.Time{}, fmt.Errorf("received header not parseable: %w",
			err)
	}
	return time.Parse(time.RFC1123Z, dateRe.FindString(guess))
}

func parseAddressList(h *mail.Header, key string) []*mail.Address {
	addrs, err := h.AddressList(key)
	if len(addrs) == 0 {
		// Only consider the error if the returned address list is empty
		// Sometimes, we get a list of addresses and unknown charset
		// errors which are not fatal.
		if val := h.Get(key); val != "" {
			if err != nil {
				log.Errorf("%s: %s: %v", key, val, err)
			}
			// Header value is not empty but parsing completely
			// failed. Return something so that the message can at
			// least be displayed.
			return []*mail.Address{{Name: val}}
		}
		return nil
	}
	for _, addr := range addrs {
		// Handle invalid headers with quoted *AND* encoded names
		if strings.HasPrefix(addr.Name, "=?") && strings.HasSuffix(addr.Name, "?=") {
			d := mime.WordDecoder{CharsetReader: message.CharsetReader}
			addr.Name, _ = d.DecodeHeader(addr.Name)
		}
	}
	// If we got at least one address, ignore any returned error.
	return addrs
}
