// Package client is a client-side SDK for the Echo Mobile HTTP API.
//
// A Session covers one authenticated conversation with the platform:
// login, optional switch to a linked account, asynchronous report
// generation with completion polling, report download, and cleanup of
// the background tasks created along the way.
//
//	s := client.New(client.DefaultBaseURL)
//	if err := s.Login(ctx, username, password); err != nil { ... }
//	defer func() { _ = s.DeleteSessionBackgroundTasks(context.Background()) }()
//	if err := s.UseAccountWithName(ctx, accountName); err != nil { ... }
//	csv, err := s.SurveyReportForName(ctx, surveyName)
//
// A Session is designed for use from a single goroutine: the login
// context and the outstanding-task set are mutated without locking.
package client

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// DefaultBaseURL is the production Echo Mobile API root.
const DefaultBaseURL = "https://www.echomobile.org/api/"

// defaultPollInterval is the wait between background-task status checks.
const defaultPollInterval = 2 * time.Second

// Session holds the persistent cookie context for one authenticated
// conversation with Echo Mobile, plus the background-task keys this
// session has created and not yet confirmed deleted.
type Session struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration

	// login is nil until Login succeeds, and is replaced wholesale by a
	// subsequent Login. Operations that need the organisation key or the
	// account timezone return ErrNoSessionData while it is nil.
	login *LoginContext

	// tasks is the outstanding background-task set. Keys are added the
	// moment the server hands back a report key, before any polling, so
	// cleanup stays possible even when a poll is aborted.
	tasks map[string]struct{}
}

// New constructs a Session against the given API root.
func New(baseURL string, opts ...Option) *Session {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	s := &Session{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
		tasks:        make(map[string]struct{}),
	}

	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			panic(err)
		}
	}

	// The platform tracks authentication in session cookies, so the
	// transport must carry a jar for anything after Login to work.
	if s.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			panic(err)
		}
		s.http.Jar = jar
	}

	return s
}

// LoginContext returns the metadata stored by the last successful Login,
// or nil if this session has not logged in yet.
func (s *Session) LoginContext() *LoginContext {
	return s.login
}

// OutstandingTasks returns a snapshot of the background-task keys created
// by this session and not yet confirmed deleted.
func (s *Session) OutstandingTasks() []string {
	keys := make([]string, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	return keys
}
