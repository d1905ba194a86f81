package search

import (
	"bytes"
)

// Card is an owned buffer holding the text of a single vCard.
type Card struct {
	buf []byte
}

// NewCard copies b into a new Card.
func NewCard(b []byte) *Card {
	return &Card{buf: bytes.Clone(b)}
}

// Bytes returns the card's text. The slice aliases the card's buffer.
func (c *Card) Bytes() []byte {
	return c.buf
}

func (c *Card) Len() int {
	return len(c.buf)
}

// Slice returns the text between byte offsets i and j.
func (c *Card) Slice(i, j int) string {
	return string(c.buf[i:j])
}

func (c *Card) String() string {
	return string(c.buf)
}

// Unfold joins folded lines as described in RFC 6350 section 3.2: every CRLF
// immediately followed by a single space or tab is removed, together with
// that whitespace character. The buffer is compacted in place in a single
// pass and the number of bytes removed is returned.
//
// Folds uncovered by a removal (e.g. "\r\n\r\n  ") are removed as well, so
// the result never contains a fold and unfolding twice is a no-op.
func (c *Card) Unfold() int {
	out := 0
	for _, b := range c.buf {
		if (b == ' ' || b == '\t') && out >= 2 && c.buf[out-2] == '\r' && c.buf[out-1] == '\n' {
			out -= 2
			continue
		}
		c.buf[out] = b
		out++
	}

	removed := len(c.buf) - out
	c.buf = c.buf[:out]
	return removed
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
