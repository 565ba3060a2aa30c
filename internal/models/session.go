package models

import "strings"

// Credentials are the inputs of a register or login request. They are never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// Normalize trims the username and email the way the sign-in forms do.
// The password is left untouched.
func (c Credentials) Normalize() Credentials {
	c.Username = strings.TrimSpace(c.Username)
	c.Email = strings.TrimSpace(c.Email)
	return c
}

// Complete reports whether both a username and a password are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

// Session is the authenticated identity held by the client.
// A session is either fully present (both fields set) or absent.
type Session struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Valid reports whether both username and token are non-empty.
func (s Session) Valid() bool {
	return s.Username != "" && s.Token != ""
}
