// Package search extracts fields from raw vCard text.
//
// A search is described by a Spec: the records whose Query field contains
// Term are selected, and every line of their Search field is reported as a
// Row, paired with the value that matched the query. Cards are matched as
// text, after RFC 6350 unfolding, so partial cards returned by a CardDAV
// server can be searched without being fully parsed.
package search

import (
	"fmt"
	"strings"

	"github.com/emersion/go-vcard"
)

// Field is a searchable vCard property.
type Field int

const (
	Name Field = iota
	Email
	Address
	Telephone
)

var fields = [...]struct {
	name  string
	token string
}{
	Name:      {"name", vcard.FieldFormattedName},
	Email:     {"email", vcard.FieldEmail},
	Address:   {"address", vcard.FieldAddress},
	Telephone: {"telephone", vcard.FieldTelephone},
}

// ParseField parses a field name. It accepts the names returned by
// Field.String, their first letter and the vCard property tokens, in any
// case.
func ParseField(s string) (Field, error) {
	s = strings.ToLower(s)
	for f, def := range fields {
		if s == def.name || s == def.name[:1] || s == strings.ToLower(def.token) {
			return Field(f), nil
		}
	}
	return 0, fmt.Errorf("search: unknown field %q", s)
}

func (f Field) valid() bool {
	return f >= 0 && int(f) < len(fields)
}

// String returns the lowercase name of the field.
func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fields[f].name
}

// Token returns the vCard property name of the field.
func (f Field) Token() string {
	if !f.valid() {
		panic(fmt.Sprintf("search: invalid field %d", int(f)))
	}
	return fields[f].token
}

// Set implements pflag.Value.
func (f *Field) Set(s string) error {
	v, err := ParseField(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Field) Type() string {
	return "field"
}

// Spec describes a search.
type Spec struct {
	Query  Field
	Term   string
	Search Field
}

// Row is a single search result: a value of the searched field and the
// value of the query field it was found with.
type Row struct {
	Value    string
	Identity string
}

// String formats the row as a tab-separated line, without the newline.
func (r Row) String() string {
	return r.Value + "\t" + r.Identity
}

// PatternError is returned when a search pattern cannot be compiled.
type PatternError struct {
	Pattern string
	Err     error
}

func (err *PatternError) Error() string {
	return fmt.Sprintf("search: unable to compile pattern %q: %v", err.Pattern, err.Err)
}

func (err *PatternError) Unwrap() error {
	return err.Err
}

// RecordError wraps a failure to search a single record.
type RecordError struct {
	Index int
	Name  string
	Err   error
}

func (err *RecordError) Error() string {
	if err.Name != "" {
		return fmt.Sprintf("search: record %d (%v): %v", err.Index, err.Name, err.Err)
	}
	return fmt.Sprintf("search: record %d: %v", err.Index, err.Err)
}

func (err *RecordError) Unwrap() error {
	return err.Err
}
