package client

// Functional options that configure a Session during construction.
// Kept in a standalone file so every available knob is discoverable at
// a glance.

import (
	"fmt"
	"net/http"
	"time"
)

// Option mutates the Session during New().
type Option func(*Session) error

// WithHTTPClient injects a custom *http.Client. Useful for setting
// transport timeouts, tracing, custom TLS settings, etc. A cookie jar is
// attached automatically if the client does not already carry one.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Session) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		s.http = hc
		return nil
	}
}

// WithPollInterval overrides the wait between report-status polls.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive, got %v", d)
		}
		s.pollInterval = d
		return nil
	}
}

// WithDebugLogging wraps the session's transport such that every
// request/response is dumped to the debug log when `enabled` is true.
func WithDebugLogging(enabled bool) Option {
	return func(s *Session) error {
		if enabled {
			transport := s.http.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			s.http.Transport = &debugTransport{base: transport}
		}
		return nil
	}
}
