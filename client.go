package mcds

import (
	"context"
	"fmt"

	"github.com/t-brown/mcds/internal"
)

// FindCurrentUserPrincipal finds the current user's principal path.
func (c *Client) FindCurrentUserPrincipal(ctx context.Context) (string, error) {
	propfind := internal.NewPropNamePropfind(currentUserPrincipalName)

	// TODO: consider retrying on the root path when this 404s
	resp, err := c.ic.PropfindFlat(ctx, "", propfind)
	if err != nil {
		return "", err
	}

	var prop currentUserPrincipal
	if err := resp.DecodeProp(&prop); err != nil {
		return "", err
	}
	if prop.Unauthenticated != nil {
		return "", fmt.Errorf("webdav: unauthenticated")
	}

	return prop.Href.Path, nil
}

// Classes returns the DAV compliance classes advertised for path, e.g.
// "addressbook" for CardDAV collections.
func (c *Client) Classes(ctx context.Context, path string) (map[string]bool, error) {
	classes, _, err := c.ic.Options(ctx, path)
	return classes, err
}
