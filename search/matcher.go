package search

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/emersion/go-vcard"
	"go.uber.org/zap"
)

const (
	// groupPrefix matches an optional property group, e.g. "item1.".
	groupPrefix = `(?:[A-Za-z0-9-]+\.)?`
	// paramSuffix matches optional property parameters, e.g. ";TYPE=work".
	paramSuffix = `(?:;[^:\r\n]*)?`
)

var (
	beginPattern = regexp.MustCompile(`(?im)^BEGIN:VCARD\r?$`)
	endPattern   = regexp.MustCompile(`(?im)^END:VCARD\r?$`)
)

// recordBounds returns the extent of the vCard surrounding offset i, so that
// fields of neighbouring cards sharing the buffer are never reported.
func recordBounds(buf []byte, i int) (start, end int) {
	if locs := beginPattern.FindAllIndex(buf[:i], -1); len(locs) > 0 {
		start = locs[len(locs)-1][0]
	}
	end = len(buf)
	if loc := endPattern.FindIndex(buf[i:]); loc != nil {
		end = i + loc[1]
	}
	return start, end
}

// Options configures a Matcher. The zero value is usable.
type Options struct {
	// Logger receives the compiled patterns and unfolding statistics at
	// debug level.
	Logger *zap.Logger
	// SkipIdentity omits the row produced by the line that matched the
	// query. It only has an effect when the query and search fields are the
	// same.
	SkipIdentity bool
	// Strict rejects cards that can't be decoded as vCards.
	Strict bool
}

// Matcher searches cards according to a Spec. It's safe to reuse a Matcher
// across cards, but not concurrently.
type Matcher struct {
	spec         Spec
	identity     *regexp.Regexp
	field        *regexp.Regexp
	skipIdentity bool
	strict       bool
	logger       *zap.Logger
}

func identityPattern(spec Spec) string {
	return `(?im)^` + groupPrefix + spec.Query.Token() + paramSuffix + `:(.*` + Quote(spec.Term) + `.*)`
}

func fieldPattern(f Field) string {
	return `(?im)^` + groupPrefix + f.Token() + paramSuffix + `:(.*)`
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// NewMatcher compiles the patterns for spec. A nil opts is equivalent to the
// zero Options.
func NewMatcher(spec Spec, opts *Options) (*Matcher, error) {
	if opts == nil {
		opts = new(Options)
	}
	if !spec.Query.valid() || !spec.Search.valid() {
		return nil, fmt.Errorf("search: invalid spec %+v", spec)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	identity, err := compile(identityPattern(spec))
	if err != nil {
		return nil, err
	}
	field, err := compile(fieldPattern(spec.Search))
	if err != nil {
		return nil, err
	}

	logger.Debug("compiled search patterns",
		zap.Stringer("query", identity),
		zap.Stringer("search", field))

	return &Matcher{
		spec:         spec,
		identity:     identity,
		field:        field,
		skipIdentity: opts.SkipIdentity && spec.Query == spec.Search,
		strict:       opts.Strict,
		logger:       logger,
	}, nil
}

// Spec returns the spec the matcher was built for.
func (m *Matcher) Spec() Spec {
	return m.spec
}

// Rows unfolds card and returns an iterator over its matching rows. If the
// card doesn't match the query, the iterator is empty. The card must not be
// modified until iteration is complete.
func (m *Matcher) Rows(card *Card) (*Rows, error) {
	if m.strict {
		if _, err := vcard.NewDecoder(bytes.NewReader(card.Bytes())).Decode(); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("search: malformed vCard: %w", err)
		}
	}

	n := card.Unfold()
	m.logger.Debug("unfolded card", zap.Int("cut", n), zap.Int("len", card.Len()))

	rows := &Rows{
		card:         card,
		field:        m.field,
		identityFrom: -1,
	}

	loc := m.identity.FindSubmatchIndex(card.Bytes())
	if loc == nil {
		rows.done = true
		return rows, nil
	}
	rows.identity = trimCR(card.Slice(loc[2], loc[3]))
	rows.pos, rows.end = recordBounds(card.Bytes(), loc[0])
	if m.skipIdentity {
		rows.identityFrom = loc[0]
	}
	return rows, nil
}

// Search writes the rows of card to w, one "value\tidentity\n" line per row,
// as they're found. It returns the number of rows written.
func (m *Matcher) Search(w io.Writer, card *Card) (int, error) {
	rows, err := m.Rows(card)
	if err != nil {
		return 0, err
	}
	return writeRows(w, rows)
}

func writeRows(w io.Writer, rows *Rows) (int, error) {
	n := 0
	for rows.Next() {
		if _, err := io.WriteString(w, rows.Row().String()+"\n"); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Rows iterates over the rows of a card. It scans the card once and can't be
// restarted.
type Rows struct {
	card         *Card
	field        *regexp.Regexp
	identity     string
	identityFrom int // start of the identity line to skip, or -1
	pos, end     int
	row          Row
	done         bool
}

// Next advances to the next row and reports whether there is one.
func (r *Rows) Next() bool {
	for !r.done {
		// Matches end before a newline or at the end of the buffer, so the
		// beginning of the remaining text is never mistaken for the
		// beginning of a line.
		loc := r.field.FindSubmatchIndex(r.card.Bytes()[r.pos:r.end])
		if loc == nil {
			r.done = true
			break
		}

		start, end := r.pos+loc[0], r.pos+loc[1]
		value := trimCR(r.card.Slice(r.pos+loc[2], r.pos+loc[3]))
		r.pos = end

		if start == r.identityFrom {
			continue
		}
		r.row = Row{Value: value, Identity: r.identity}
		return true
	}

	r.row = Row{}
	return false
}

// Row returns the current row.
func (r *Rows) Row() Row {
	return r.row
}

// Identity returns the value of the query field that selected the card, or
// an empty string if the card didn't match.
func (r *Rows) Identity() string {
	return r.identity
}
