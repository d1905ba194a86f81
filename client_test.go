package mcds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const principalMultistatus = `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/dav/</d:href>
    <d:propstat>
      <d:prop>
        <d:current-user-principal><d:href>/principals/alice/</d:href></d:current-user-principal>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

func TestClient_FindCurrentUserPrincipal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != "alice" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusMultiStatus)
		io.WriteString(w, principalMultistatus)
	}))
	defer ts.Close()

	hc := HTTPClientWithBasicAuth(ts.Client(), "alice", "secret")
	c, err := NewClient(hc, ts.URL+"/dav/")
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}

	p, err := c.FindCurrentUserPrincipal(context.Background())
	if err != nil {
		t.Fatalf("FindCurrentUserPrincipal() = %v", err)
	}
	if p != "/principals/alice/" {
		t.Errorf("FindCurrentUserPrincipal() = %q", p)
	}

	c, err = NewClient(ts.Client(), ts.URL+"/dav/")
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	if _, err := c.FindCurrentUserPrincipal(context.Background()); err == nil {
		t.Errorf("FindCurrentUserPrincipal() without credentials succeeded")
	}
}

func TestHTTPClientWithLogger(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if string(b) != "<ping/>" {
			t.Errorf("server got body %q", b)
		}
		io.WriteString(w, "<pong/>")
	}))
	defer ts.Close()

	core, logs := observer.New(zap.DebugLevel)
	hc := HTTPClientWithLogger(ts.Client(), zap.New(core))

	req, err := http.NewRequest("REPORT", ts.URL, strings.NewReader("<ping/>"))
	if err != nil {
		t.Fatalf("NewRequest() = %v", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		t.Fatalf("Do() = %v", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() = %v", err)
	}
	if string(b) != "<pong/>" {
		t.Errorf("response body = %q after logging", b)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["body"]; got != "<ping/>" {
		t.Errorf("logged request body = %v", got)
	}
	if got := entries[1].ContextMap()["body"]; got != "<pong/>" {
		t.Errorf("logged response body = %v", got)
	}
}
