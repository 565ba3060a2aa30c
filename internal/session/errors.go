package session

import (
	"errors"

	"github.com/claude/amp/internal/api"
)

var (
	// ErrMissingCredentials is returned before any request when the username
	// or password is empty.
	ErrMissingCredentials = errors.New("session: username and password are required")
	// ErrBusy is returned while a login or registration is still in flight.
	ErrBusy = errors.New("session: authentication already in progress")
	// ErrAlreadyLoggedIn is returned by login and register while a session is live.
	ErrAlreadyLoggedIn = errors.New("session: already logged in")
)

// AuthError is a failed login or registration. Message is the text to show
// the user; for Rejected it is the server's message unchanged.
type AuthError struct {
	Kind    api.FailureKind
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
