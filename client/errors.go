package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSessionData is returned when an operation needs login-derived data
// (organisation key, account timezone) before Login has succeeded.
var ErrNoSessionData = errors.New("no session data; call Login first")

// RemoteServiceError is returned when the Echo Mobile server responded to
// a request with success=false. Message carries the server's text verbatim.
type RemoteServiceError struct {
	Message string
}

func (e *RemoteServiceError) Error() string {
	return "echo mobile: " + e.Message
}

// IsRemoteServiceError reports whether err is a server-reported failure.
func IsRemoteServiceError(err error) bool {
	var rse *RemoteServiceError
	return errors.As(err, &rse)
}

// NotFoundError is returned when a name-to-key resolution matched nothing.
// Available lists the names the server did return, for diagnosis.
type NotFoundError struct {
	Kind      string // "account", "group" or "survey"
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found (available: %s)",
		e.Kind, e.Name, strings.Join(e.Available, ", "))
}

// AmbiguousNameError is returned when a name-to-key resolution matched
// more than one entry. The platform is not known to ever produce duplicate
// names, so this is treated as an invariant violation rather than a
// condition to resolve by picking one.
type AmbiguousNameError struct {
	Kind    string
	Name    string
	Matches int
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("%d %ss share the name %q", e.Matches, e.Kind, e.Name)
}

// UnexpectedTaskStatusError is returned when a polled report task left the
// generating state with a status other than the documented success code.
// The meaning of other status values is undocumented by the platform, so
// there is no recovery path.
type UnexpectedTaskStatusError struct {
	TaskKey string
	Status  int
}

func (e *UnexpectedTaskStatusError) Error() string {
	return fmt.Sprintf("task %s stopped generating with unknown status %d", e.TaskKey, e.Status)
}
