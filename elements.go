package mcds

import (
	"encoding/xml"

	"github.com/t-brown/mcds/internal"
)

var currentUserPrincipalName = xml.Name{Space: internal.Namespace, Local: "current-user-principal"}

// https://tools.ietf.org/html/rfc5397#section-3
type currentUserPrincipal struct {
	XMLName         xml.Name      `xml:"DAV: current-user-principal"`
	Href            internal.Href `xml:"href,omitempty"`
	Unauthenticated *struct{}     `xml:"unauthenticated,omitempty"`
}
