// SPDX-License-Identifier: Apache-2.0

package jwz

import "time"

// Message is the caller's view of an email as far as threading is concerned.
// The threader never modifies it.
type Message struct {
	// Id is the content of the Message-Id header, without angle brackets.
	//
	Id string

	// References lists the ids of the messages this one refers to, ordered
	// from oldest ancestor to youngest ancestor. It is usually built from the
	// References header, falling back to In-Reply-To.
	//
	References []string

	// Subject is the raw subject line with no manipulation of Re: Re: etc.
	//
	Subject string

	// Date, From and Key are not used by the threading algorithm. They are
	// carried along so that callers can sort and render the threads without
	// a side table.
	//
	Date time.Time
	From string
	Key  string
}
