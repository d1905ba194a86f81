package carddav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/t-brown/mcds"
	"github.com/t-brown/mcds/internal"
)

// Discover performs a DNS-based CardDAV service discovery as described in
// RFC 6352 section 11. It returns the URL to the CardDAV server.
func Discover(ctx context.Context, domain string) (string, error) {
	return internal.DiscoverContextURL(ctx, "carddav", domain)
}

// Client provides access to a remote CardDAV server.
type Client struct {
	*mcds.Client

	ic *internal.Client
}

func NewClient(c mcds.HTTPClient, endpoint string) (*Client, error) {
	wc, err := mcds.NewClient(c, endpoint)
	if err != nil {
		return nil, err
	}
	ic, err := internal.NewClient(c, endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{wc, ic}, nil
}

func (c *Client) FindAddressBookHomeSet(ctx context.Context, principal string) (string, error) {
	propfind := internal.NewPropNamePropfind(addressBookHomeSetName)
	resp, err := c.ic.PropfindFlat(ctx, principal, propfind)
	if err != nil {
		return "", err
	}

	var prop addressbookHomeSet
	if err := resp.DecodeProp(&prop); err != nil {
		return "", err
	}

	return prop.Href.Path, nil
}

func (c *Client) FindAddressBooks(ctx context.Context, addressBookHomeSet string) ([]AddressBook, error) {
	propfind := internal.NewPropNamePropfind(
		internal.ResourceTypeName,
		internal.DisplayNameName,
		addressBookDescriptionName,
		maxResourceSizeName,
	)
	ms, err := c.ic.Propfind(ctx, addressBookHomeSet, internal.DepthOne, propfind)
	if err != nil {
		return nil, err
	}

	l := make([]AddressBook, 0, len(ms.Responses))
	for _, resp := range ms.Responses {
		path, err := resp.Path()
		if err != nil {
			return nil, err
		}

		var resType internal.ResourceType
		if err := resp.DecodeProp(&resType); err != nil {
			return nil, err
		}
		if !resType.Is(addressBookName) {
			continue
		}

		var desc addressbookDescription
		if err := resp.DecodeProp(&desc); err != nil && !internal.IsNotFound(err) {
			return nil, err
		}

		var dispName internal.DisplayName
		if err := resp.DecodeProp(&dispName); err != nil && !internal.IsNotFound(err) {
			return nil, err
		}

		var maxResSize maxResourceSize
		if err := resp.DecodeProp(&maxResSize); err != nil && !internal.IsNotFound(err) {
			return nil, err
		}
		if maxResSize.Size < 0 {
			return nil, fmt.Errorf("carddav: max-resource-size must be a positive integer")
		}

		l = append(l, AddressBook{
			Path:            path,
			Name:            dispName.Name,
			Description:     desc.Description,
			MaxResourceSize: maxResSize.Size,
		})
	}

	return l, nil
}

func encodeAddressBookQuery(query *AddressBookQuery) (*addressbookQuery, error) {
	var addrDataReq addressDataReq
	for _, name := range query.Props {
		addrDataReq.Props = append(addrDataReq.Props, prop{Name: name})
	}
	if len(addrDataReq.Props) == 0 {
		addrDataReq.Allprop = &struct{}{}
	}

	propReq, err := internal.EncodeProp(&addrDataReq)
	if err != nil {
		return nil, err
	}

	q := addressbookQuery{
		Prop:   propReq,
		Filter: filter{Test: query.FilterTest},
	}
	for _, pf := range query.PropFilters {
		el := propFilter{Name: pf.Name, Test: pf.Test}
		for _, tm := range pf.TextMatches {
			el.TextMatches = append(el.TextMatches, textMatch{
				Text:            tm.Text,
				Collation:       tm.Collation,
				NegateCondition: negateCondition(tm.NegateCondition),
				MatchType:       tm.MatchType,
			})
		}
		q.Filter.Props = append(q.Filter.Props, el)
	}
	if query.Limit > 0 {
		q.Limit = &limit{NResults: uint(query.Limit)}
	}
	return &q, nil
}

// decodeAddressData extracts the address-data of every response, in
// document order. Responses that carry no address-data are skipped.
func decodeAddressData(ms *internal.Multistatus) ([]AddressData, error) {
	l := make([]AddressData, 0, len(ms.Responses))
	for _, resp := range ms.Responses {
		path, err := resp.Path()
		if internal.IsNotFound(err) {
			continue
		} else if err != nil {
			return nil, err
		}

		var addrData addressDataResp
		if err := resp.DecodeProp(&addrData); internal.IsNotFound(err) {
			continue
		} else if err != nil {
			return nil, err
		}

		l = append(l, AddressData{
			Path: path,
			Data: normalizeNewlines(addrData.Data),
		})
	}

	return l, nil
}

var (
	crlf = []byte("\r\n")
	lf   = []byte("\n")
)

// normalizeNewlines restores the CRLF line endings that XML decoding folds
// into LF.
func normalizeNewlines(b []byte) []byte {
	b = bytes.ReplaceAll(b, crlf, lf)
	return bytes.ReplaceAll(b, lf, crlf)
}

// QueryAddressBook sends an addressbook-query REPORT to the address book at
// path and returns the raw address data of the matching objects.
func (c *Client) QueryAddressBook(ctx context.Context, path string, query *AddressBookQuery) ([]AddressData, error) {
	if query == nil {
		query = &AddressBookQuery{}
	}

	q, err := encodeAddressBookQuery(query)
	if err != nil {
		return nil, err
	}

	req, err := c.ic.NewXMLRequest(ctx, "REPORT", path, q)
	if err != nil {
		return nil, err
	}

	req.Header.Add("Depth", "1")

	ms, err := c.ic.DoMultiStatus(req)
	if err != nil {
		return nil, err
	}

	return decodeAddressData(ms)
}

// SupportsAddressBook reports whether the server advertises the
// "addressbook" DAV class for path.
func (c *Client) SupportsAddressBook(ctx context.Context, path string) (bool, error) {
	classes, err := c.Classes(ctx, path)
	if err != nil {
		var httpErr *internal.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusMethodNotAllowed {
			return false, nil
		}
		return false, err
	}
	return classes["addressbook"], nil
}
