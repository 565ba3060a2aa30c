// Package view turns session state into what the presentation layer shows.
// Nothing here performs I/O.
package view

import (
	"fmt"
	"strconv"

	"github.com/claude/amp/internal/models"
)

// MaxRecentWorkouts is how many workouts the dashboard lists. The server
// returns newest first, so these are the most recent ones.
const MaxRecentWorkouts = 5

// RenderInstructions describes the screen for one moment of session state.
type RenderInstructions struct {
	AuthFormsVisible      bool                   `json:"auth_forms_visible"`
	DashboardVisible      bool                   `json:"dashboard_visible"`
	Busy                  bool                   `json:"busy"`
	Username              string                 `json:"username"`
	AccessActive          bool                   `json:"access_active"`
	Greeting              string                 `json:"greeting,omitempty"`
	Workouts              []models.WorkoutRecord `json:"workouts"`
	EmptyIndicatorVisible bool                   `json:"empty_indicator_visible"`
	HealthBannerVisible   bool                   `json:"health_banner_visible"`
}

// Project computes RenderInstructions. It is deterministic and does not keep
// or modify workouts.
func Project(state models.SessionState, apiHealthy bool, workouts []models.WorkoutRecord) RenderInstructions {
	ri := RenderInstructions{
		HealthBannerVisible: !apiHealthy,
		Workouts:            []models.WorkoutRecord{},
	}

	sess, loggedIn := state.Session()
	if !loggedIn {
		ri.AuthFormsVisible = true
		ri.Busy = state.Phase() == models.PhaseAuthenticating
		return ri
	}

	ri.DashboardVisible = true
	ri.Username = sess.Username
	ri.AccessActive = true
	ri.Greeting = fmt.Sprintf("Thanks, %s, access active", sess.Username)

	n := min(len(workouts), MaxRecentWorkouts)
	ri.Workouts = append(ri.Workouts, workouts[:n]...)
	ri.EmptyIndicatorVisible = n == 0
	return ri
}

// Lines renders each listed workout as one line of text for terminal-style
// presenters.
func (ri RenderInstructions) Lines() []string {
	lines := make([]string, 0, len(ri.Workouts))
	for _, w := range ri.Workouts {
		lines = append(lines, FormatWorkout(w))
	}
	return lines
}

// FormatWorkout renders "Exercise - SETSxREPS @ WEIGHT kg", then the date and
// note when present.
func FormatWorkout(w models.WorkoutRecord) string {
	line := fmt.Sprintf("%s - %d×%d @ %s kg", w.Exercise, w.Sets, w.Reps,
		strconv.FormatFloat(w.Weight, 'f', -1, 64))
	if !w.Date.IsZero() {
		line += " (" + w.Date.Format("2006-01-02 15:04") + ")"
	}
	if w.Note != "" {
		line += " | Note: " + w.Note
	}
	return line
}
