package config

import (
	"fmt"
	"net/url"

	"github.com/jdx/go-netrc"
)

// DefaultNetrcPath is the netrc file read when Netrc is enabled.
const DefaultNetrcPath = "~/.netrc"

// netrcLogin returns the login and password of the netrc entry matching
// the host of rawURL.
func netrcLogin(path, rawURL string) (login, password string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("config: invalid URL %q: %w", rawURL, err)
	}
	host := u.Hostname()

	n, err := netrc.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("config: reading %v: %w", path, err)
	}
	m := n.Machine(host)
	if m == nil {
		return "", "", fmt.Errorf("config: no entry for %q in %v", host, path)
	}
	return m.Get("login"), m.Get("password"), nil
}
