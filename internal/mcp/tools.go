package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/session"
	"github.com/claude/amp/internal/view"
)

// statusResult is returned by every tool that reports session state.
type statusResult struct {
	State models.SessionState     `json:"state"`
	View  view.RenderInstructions `json:"view"`
}

type workoutsResult struct {
	Workouts []models.WorkoutRecord `json:"workouts"`
	Lines    []string               `json:"lines"`
}

// --- Tool definitions ---

var toolLogin = mcp.NewTool("login",
	mcp.WithDescription("Log in to the workout service. The session is stored and reused by later calls."),
	mcp.WithString("username", mcp.Required(), mcp.Description("Account username")),
	mcp.WithString("password", mcp.Required(), mcp.Description("Account password")),
)

var toolRegister = mcp.NewTool("register",
	mcp.WithDescription("Create an account and log in with it."),
	mcp.WithString("username", mcp.Required(), mcp.Description("New username")),
	mcp.WithString("password", mcp.Required(), mcp.Description("New password")),
	mcp.WithString("email", mcp.Description("Email address (optional)")),
)

var toolLogout = mcp.NewTool("logout",
	mcp.WithDescription("Log out and forget the stored session."),
)

var toolSessionStatus = mcp.NewTool("session_status",
	mcp.WithDescription("Report whether a user is logged in, and the current render instructions."),
)

var toolRecentWorkouts = mcp.NewTool("recent_workouts",
	mcp.WithDescription("Fetch the workout list and return the five most recent entries. Requires a logged-in session."),
)

var toolAPIHealth = mcp.NewTool("api_health",
	mcp.WithDescription("Check whether the workout service is reachable."),
)

// --- Tool handlers ---

func (h *handlers) login(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username, err := req.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError("username parameter is required"), nil
	}
	password, err := req.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError("password parameter is required"), nil
	}

	if err := h.ctl.RequestLogin(ctx, username, password); err != nil {
		return h.commandError("login", err), nil
	}
	return h.status()
}

func (h *handlers) register(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username, err := req.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError("username parameter is required"), nil
	}
	password, err := req.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError("password parameter is required"), nil
	}
	creds := models.Credentials{
		Username: username,
		Password: password,
		Email:    req.GetString("email", ""),
	}

	if err := h.ctl.RequestRegister(ctx, creds); err != nil {
		return h.commandError("register", err), nil
	}
	return h.status()
}

func (h *handlers) logout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.ctl.RequestLogout(ctx); err != nil {
		return h.commandError("logout", err), nil
	}
	return h.status()
}

func (h *handlers) sessionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.status()
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !h.ctl.State().LoggedIn() {
		return mcp.NewToolResultError("not logged in"), nil
	}

	h.ctl.RefreshWorkouts(ctx)
	if !h.ctl.State().LoggedIn() {
		return mcp.NewToolResultError("session expired, please log in again"), nil
	}

	v := h.ctl.View()
	result, err := mcp.NewToolResultJSON(workoutsResult{Workouts: v.Workouts, Lines: v.Lines()})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) apiHealth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	healthy := h.ctl.CheckHealth(ctx)
	result, err := mcp.NewToolResultJSON(map[string]bool{"healthy": healthy})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) status() (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(statusResult{State: h.ctl.State(), View: h.ctl.View()})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// commandError turns a controller error into a tool error. Rejections keep
// the server's message.
func (h *handlers) commandError(op string, err error) *mcp.CallToolResult {
	if _, ok := session.IsAuthError(err); ok {
		return mcp.NewToolResultError(err.Error())
	}
	if errors.Is(err, session.ErrMissingCredentials) || errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrAlreadyLoggedIn) {
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+op, "error", err)
	return mcp.NewToolResultError(op + " failed: " + err.Error())
}
