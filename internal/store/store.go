// Package store persists the client's session between runs.
//
// Exactly two entries are kept, amp_username and amp_token. Implementations
// write and clear them together and treat a store holding only one of them as
// holding no session at all.
package store

import (
	"context"
	"errors"

	"github.com/claude/amp/internal/models"
)

// Entry keys, shared with the browser client's localStorage layout.
const (
	KeyUsername = "amp_username"
	KeyToken    = "amp_token"
)

// ErrInvalidSession is returned by Save for a session missing either field.
var ErrInvalidSession = errors.New("store: session must have both username and token")

// Store is the persistence capability the session state machine depends on.
type Store interface {
	// Save replaces the stored session.
	Save(ctx context.Context, s models.Session) error
	// Load returns the stored session. ok is false when nothing valid is stored.
	Load(ctx context.Context) (s models.Session, ok bool, err error)
	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// fromEntries builds a session from raw key/value entries, reporting false
// unless both entries are present and non-empty.
func fromEntries(entries map[string]string) (models.Session, bool) {
	s := models.Session{
		Username: entries[KeyUsername],
		Token:    entries[KeyToken],
	}
	if !s.Valid() {
		return models.Session{}, false
	}
	return s, true
}

// partial reports whether exactly one of the two entries is set.
func partial(entries map[string]string) bool {
	return (entries[KeyUsername] == "") != (entries[KeyToken] == "")
}
