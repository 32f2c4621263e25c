package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestSession spins up a fake backend and a Session pointed at it.
// The poll interval is shortened so await tests finish quickly.
func newTestSession(t *testing.T, h http.Handler) *Session {
	t.Helper()
	hs := httptest.NewServer(h)
	t.Cleanup(hs.Close)
	return New(hs.URL+"/", WithPollInterval(5*time.Millisecond))
}
