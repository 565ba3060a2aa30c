package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/claude/amp/internal/api"
	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/session"
	"github.com/claude/amp/internal/view"
)

// TestPrintViewLoggedOut verifies the logged-out screen points at the login command.
func TestPrintViewLoggedOut(t *testing.T) {
	var buf bytes.Buffer
	printView(&buf, view.Project(models.LoggedOut(), true, nil))

	if !strings.Contains(buf.String(), "Not logged in") {
		t.Errorf("output = %q", buf.String())
	}
	if strings.Contains(buf.String(), "not reachable") {
		t.Error("health banner shown while API is healthy")
	}
}

// TestPrintViewDashboard verifies the greeting and one line per workout.
func TestPrintViewDashboard(t *testing.T) {
	state := models.LoggedIn(models.Session{Username: "alice", Token: "T1"})
	workouts := []models.WorkoutRecord{
		{Exercise: "Squat", Sets: 5, Reps: 5, Weight: 100},
		{Exercise: "Row", Sets: 3, Reps: 8, Weight: 60},
	}
	var buf bytes.Buffer
	printView(&buf, view.Project(state, false, workouts))
	out := buf.String()

	for _, want := range []string{"not reachable", "Thanks, alice, access active", "  Squat", "  Row"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestPrintViewEmpty verifies the empty indicator for a user without workouts.
func TestPrintViewEmpty(t *testing.T) {
	state := models.LoggedIn(models.Session{Username: "alice", Token: "T1"})
	var buf bytes.Buffer
	printView(&buf, view.Project(state, true, nil))

	if !strings.Contains(buf.String(), "No workouts yet.") {
		t.Errorf("output = %q", buf.String())
	}
}

// TestUserMessage verifies that session errors the user can act on are shown
// as plain lines and that other failures are not.
func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
		ok   bool
	}{
		{"rejected", &session.AuthError{Kind: api.Rejected, Message: "bad credentials"}, "bad credentials", true},
		{"wrapped already logged in", fmt.Errorf("login: %w", session.ErrAlreadyLoggedIn), "already logged in, run 'amp logout' first", true},
		{"missing credentials", session.ErrMissingCredentials, "username and password are required (-u USER -p PASS)", true},
		{"busy", session.ErrBusy, "another login is still in progress", true},
		{"store failure", errors.New("saving session: disk full"), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := userMessage(tc.err)
			if ok != tc.ok || got != tc.want {
				t.Errorf("userMessage() = %q, %v, want %q, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}
