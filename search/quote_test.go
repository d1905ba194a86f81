package search

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"", ""},
		{"alice", "alice"},
		{"Zoë Ångström", `Zoë\ Ångström`},
		{"+1 (555) 010-0000", `\+1\ \(555\)\ 010\-0000`},
		{"a.b", `a\.b`},
		{`C:\path`, `C:\\path`},
		{"*?[]{}^$|", `\*\?\[\]\{\}\^\$\|`},
	} {
		got := Quote(tc.in)
		assert.Equal(t, tc.want, got, "Quote(%q)", tc.in)
		assert.Len(t, got, len(tc.in)+strings.Count(got, `\`)-strings.Count(tc.in, `\`), "Quote(%q)", tc.in)
	}
}

func TestQuote_literal(t *testing.T) {
	for _, term := range []string{
		"alice@example.com",
		"O'Brien (Jr.)",
		"+1 555-0100",
		"a+b*c?d",
		"[work] {home}",
		"^start$ | end",
		`back\slash`,
		metaChars,
	} {
		re, err := regexp.Compile("^" + Quote(term) + "$")
		if assert.NoError(t, err, "term %q", term) {
			assert.True(t, re.MatchString(term), "pattern %q doesn't match %q", re, term)
		}

		re = regexp.MustCompile("(?i)(.*" + Quote(term) + ".*)")
		assert.True(t, re.MatchString("FN:x"+strings.ToUpper(term)+"y"), "term %q", term)
	}
}

func TestQuote_sizing(t *testing.T) {
	term := "(a) b+c-d.e"
	got := Quote(term)
	assert.Equal(t, len(term)+6, len(got))
}
