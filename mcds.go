// Package mcds provides a small WebDAV client used to search CardDAV
// address books from the command line.
//
// WebDAV is defined in RFC 4918, CardDAV in RFC 6352.
package mcds

import (
	"bytes"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/t-brown/mcds/internal"
)

// HTTPClient performs HTTP requests. It's implemented by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type basicAuthHTTPClient struct {
	c                  HTTPClient
	username, password string
}

func (c *basicAuthHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.username, c.password)
	return c.c.Do(req)
}

// HTTPClientWithBasicAuth returns an HTTP client that adds basic
// authentication to all outgoing requests. If c is nil, http.DefaultClient is
// used.
func HTTPClientWithBasicAuth(c HTTPClient, username, password string) HTTPClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &basicAuthHTTPClient{c, username, password}
}

type loggingHTTPClient struct {
	c      HTTPClient
	logger *zap.Logger
}

func (c *loggingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if ce := c.logger.Check(zap.DebugLevel, "sending request"); ce != nil {
		body, err := peekBody(&req.Body)
		if err != nil {
			return nil, err
		}
		ce.Write(
			zap.String("method", req.Method),
			zap.Stringer("url", req.URL),
			zap.ByteString("body", body),
		)
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}

	if ce := c.logger.Check(zap.DebugLevel, "retrieved response"); ce != nil {
		body, err := peekBody(&resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		ce.Write(
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
	}
	return resp, nil
}

// peekBody reads a request or response body and replaces it with an
// in-memory copy.
func peekBody(rc *io.ReadCloser) ([]byte, error) {
	if *rc == nil || *rc == http.NoBody {
		return nil, nil
	}
	b, err := io.ReadAll(*rc)
	(*rc).Close()
	if err != nil {
		return nil, err
	}
	*rc = io.NopCloser(bytes.NewReader(b))
	return b, nil
}

// HTTPClientWithLogger returns an HTTP client that logs request and response
// bodies at debug level. If c is nil, http.DefaultClient is used.
func HTTPClientWithLogger(c HTTPClient, logger *zap.Logger) HTTPClient {
	if c == nil {
		c = http.DefaultClient
	}
	if logger == nil {
		return c
	}
	return &loggingHTTPClient{c, logger}
}

// Client provides access to a remote WebDAV server.
type Client struct {
	ic *internal.Client
}

// NewClient creates a new WebDAV client. If c is nil, http.DefaultClient is
// used.
func NewClient(c HTTPClient, endpoint string) (*Client, error) {
	ic, err := internal.NewClient(c, endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{ic}, nil
}
