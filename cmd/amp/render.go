package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/claude/amp/internal/session"
	"github.com/claude/amp/internal/view"
)

func printView(w io.Writer, v view.RenderInstructions) {
	if v.HealthBannerVisible {
		fmt.Fprintln(w, "! The workout API is not reachable.")
	}
	if v.AuthFormsVisible {
		fmt.Fprintln(w, "Not logged in. Run: amp login -u USER -p PASS")
		return
	}

	fmt.Fprintln(w, v.Greeting)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent workouts:")
	if v.EmptyIndicatorVisible {
		fmt.Fprintln(w, "  No workouts yet.")
		return
	}
	for _, line := range v.Lines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// userMessage returns the line to show for errors the user can act on.
// Anything else is logged as a failure.
func userMessage(err error) (string, bool) {
	var ae *session.AuthError
	switch {
	case errors.As(err, &ae):
		return ae.Message, true
	case errors.Is(err, session.ErrAlreadyLoggedIn):
		return "already logged in, run 'amp logout' first", true
	case errors.Is(err, session.ErrMissingCredentials):
		return "username and password are required (-u USER -p PASS)", true
	case errors.Is(err, session.ErrBusy):
		return "another login is still in progress", true
	}
	return "", false
}
