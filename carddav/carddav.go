// Package carddav provides a client for CardDAV address books.
//
// CardDAV is defined in RFC 6352.
package carddav

import (
	"encoding/xml"
)

const namespace = "urn:ietf:params:xml:ns:carddav"

var (
	addressBookHomeSetName     = xml.Name{Space: namespace, Local: "addressbook-home-set"}
	addressBookName            = xml.Name{Space: namespace, Local: "addressbook"}
	addressBookDescriptionName = xml.Name{Space: namespace, Local: "addressbook-description"}
	maxResourceSizeName        = xml.Name{Space: namespace, Local: "max-resource-size"}
)

// UnicodeCasemap is the case-insensitive collation defined in RFC 4790
// section 9.3 and required by RFC 6352 section 8.3.
const UnicodeCasemap = "i;unicode-casemap"

type AddressBook struct {
	Path            string
	Name            string
	Description     string
	MaxResourceSize int64
}

type FilterTest string

const (
	FilterAnyOf FilterTest = "anyof"
	FilterAllOf FilterTest = "allof"
)

type MatchType string

const (
	MatchEquals     MatchType = "equals"
	MatchContains   MatchType = "contains"
	MatchStartsWith MatchType = "starts-with"
	MatchEndsWith   MatchType = "ends-with"
)

type TextMatch struct {
	Text            string
	NegateCondition bool
	MatchType       MatchType
	Collation       string
}

type PropFilter struct {
	Name        string
	Test        FilterTest
	TextMatches []TextMatch
}

// AddressBookQuery describes an addressbook-query REPORT. Props lists the
// vCard properties the server should return in address-data; an empty list
// requests whole cards.
type AddressBookQuery struct {
	Props       []string
	FilterTest  FilterTest
	PropFilters []PropFilter
	Limit       int // <= 0 means unlimited
}

// AddressData is the raw vCard text of one address object, as returned in an
// address-data property. Line endings are CRLF.
type AddressData struct {
	Path string
	Data []byte
}
