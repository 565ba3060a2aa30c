// Package api is a typed client for the fitness tracking REST service.
//
// Every call returns a Result rather than an error so the caller can tell a
// refusal by the service (Rejected), an expired token (Unauthorized) and a
// connectivity problem (Network) apart. The client never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claude/amp/internal/models"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 5 * time.Second

// Fallback messages for refusals that carry no server text.
const (
	msgRegisterFailed = "registration failed"
	msgLoginFailed    = "login failed"
	msgSessionExpired = "session expired"
)

// Client calls the remote service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client for baseURL. A nil httpClient gets a default
// client with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type workoutsResponse struct {
	Workouts []models.WorkoutRecord `json:"workouts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, method, path string, payload any, header http.Header) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("api: marshal %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read %s body: %w", path, err)
	}

	c.log.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
	)
	return &response{status: resp.StatusCode, body: data}, nil
}

// networkMessage is the text surfaced for connectivity failures.
func networkMessage(err error) string {
	return "connection to server failed: " + err.Error()
}

// serverError extracts the service's {"error": "..."} text, or returns fallback
// when the body carries none.
func serverError(body []byte, fallback string) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return fallback
	}
	return e.Error
}

// Register creates an account. Only 201 counts as success.
func (c *Client) Register(ctx context.Context, creds models.Credentials) Result[Unit] {
	resp, err := c.do(ctx, http.MethodPost, "/register", registerRequest{
		Username: creds.Username,
		Email:    creds.Email,
		Password: creds.Password,
	}, nil)
	if err != nil {
		return Failure[Unit](Network, networkMessage(err))
	}
	if resp.status != http.StatusCreated {
		return Failure[Unit](Rejected, serverError(resp.body, msgRegisterFailed))
	}
	return Success(Unit{})
}

// Login exchanges credentials for a token. A 200 without a token is treated
// the same as a refusal.
func (c *Client) Login(ctx context.Context, username, password string) Result[string] {
	resp, err := c.do(ctx, http.MethodPost, "/login", loginRequest{
		Username: username,
		Password: password,
	}, nil)
	if err != nil {
		return Failure[string](Network, networkMessage(err))
	}

	if resp.status == http.StatusOK {
		var lr loginResponse
		if err := json.Unmarshal(resp.body, &lr); err == nil && lr.Token != "" {
			return Success(lr.Token)
		}
	}
	return Failure[string](Rejected, serverError(resp.body, msgLoginFailed))
}

// FetchWorkouts returns the user's workouts in server order. Only a 401 maps
// to Unauthorized; every other failure is Network so a flaky server never
// ends a session.
func (c *Client) FetchWorkouts(ctx context.Context, token string) Result[[]models.WorkoutRecord] {
	resp, err := c.do(ctx, http.MethodGet, "/get_workouts", nil, http.Header{
		"Authorization": []string{token},
	})
	if err != nil {
		return Failure[[]models.WorkoutRecord](Network, networkMessage(err))
	}

	switch {
	case resp.status == http.StatusUnauthorized:
		return Failure[[]models.WorkoutRecord](Unauthorized, serverError(resp.body, msgSessionExpired))
	case resp.status != http.StatusOK:
		return Failure[[]models.WorkoutRecord](Network,
			fmt.Sprintf("get_workouts returned %d: %s", resp.status, serverError(resp.body, http.StatusText(resp.status))))
	}

	var wr workoutsResponse
	if err := json.Unmarshal(resp.body, &wr); err != nil {
		return Failure[[]models.WorkoutRecord](Network, "malformed workouts response: "+err.Error())
	}
	if wr.Workouts == nil {
		wr.Workouts = []models.WorkoutRecord{}
	}
	return Success(wr.Workouts)
}

// CheckHealth pings the service. Every failure collapses to false.
func (c *Client) CheckHealth(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, "/ping", nil, nil)
	if err != nil {
		return false
	}
	return resp.status >= 200 && resp.status < 300
}
