// Package mcp exposes the session controller as MCP tools so an assistant
// can log in and read recent workouts on the user's behalf.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/view"
)

// Controller is the part of session.Machine the MCP handlers drive.
type Controller interface {
	RequestLogin(ctx context.Context, username, password string) error
	RequestRegister(ctx context.Context, creds models.Credentials) error
	RequestLogout(ctx context.Context) error
	RefreshWorkouts(ctx context.Context)
	CheckHealth(ctx context.Context) bool
	State() models.SessionState
	View() view.RenderInstructions
}

// New creates an MCP server with all tools and resources registered.
func New(ctl Controller, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("amp", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Workout tracker session. Log in or register, then list the most recent workouts. The session persists between runs until logout or until the server rejects the token."),
	)

	h := &handlers{ctl: ctl, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolLogin, Handler: h.login},
		server.ServerTool{Tool: toolRegister, Handler: h.register},
		server.ServerTool{Tool: toolLogout, Handler: h.logout},
		server.ServerTool{Tool: toolSessionStatus, Handler: h.sessionStatus},
		server.ServerTool{Tool: toolRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerTool{Tool: toolAPIHealth, Handler: h.apiHealth},
	)

	s.AddResources(
		server.ServerResource{Resource: resView, Handler: h.viewResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ctl Controller
	log *slog.Logger
}

var resView = mcp.NewResource(
	"amp://view",
	"Current View",
	mcp.WithResourceDescription("Session state and render instructions: which screen is shown, the greeting, and up to five recent workouts"),
	mcp.WithMIMEType("application/json"),
)
