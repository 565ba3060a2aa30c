// Package session owns the client's authentication state.
//
// A Machine moves between LoggedOut, Authenticating and LoggedIn in response
// to login, register and logout commands, persists the live session through a
// store.Store, and drops the session when the server reports its token as
// unauthorized. Every change is published to subscribers as an Update carrying
// fresh render instructions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/claude/amp/internal/api"
	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/store"
	"github.com/claude/amp/internal/view"
)

// API is the remote service as the Machine uses it. *api.Client satisfies it.
type API interface {
	Register(ctx context.Context, creds models.Credentials) api.Result[api.Unit]
	Login(ctx context.Context, username, password string) api.Result[string]
	FetchWorkouts(ctx context.Context, token string) api.Result[[]models.WorkoutRecord]
	CheckHealth(ctx context.Context) bool
}

// Compile-time check: *api.Client satisfies API.
var _ API = (*api.Client)(nil)

// Machine is the session state machine.
type Machine struct {
	api   API
	store store.Store
	log   *slog.Logger

	// mu guards the fields below and serializes every store access.
	mu         sync.Mutex
	state      models.SessionState
	identity   uuid.UUID // identity of the live session; uuid.Nil when none
	workouts   []models.WorkoutRecord
	apiHealthy bool

	// qmu guards delivery. Lock order is mu before qmu.
	qmu        sync.Mutex
	subs       []subscriber
	queue      []Update
	delivering bool

	bg sync.WaitGroup
}

// New creates a Machine in the LoggedOut state. Call Start to restore a
// persisted session.
func New(client API, st store.Store, log *slog.Logger) *Machine {
	return &Machine{
		api:        client,
		store:      st,
		log:        log,
		state:      models.LoggedOut(),
		apiHealthy: true,
	}
}

// Start restores the persisted session, if any. A valid stored session puts
// the Machine in LoggedIn and starts a workout fetch; otherwise, including
// when the store cannot be read, it stays LoggedOut.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	sess, ok, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("stored session unreadable, starting logged out", "error", err)
		ok = false
	}
	if !ok {
		m.enqueueLocked(Notice{})
		m.mu.Unlock()
		m.flush()
		m.log.Info("no stored session")
		return nil
	}

	m.setLoggedInLocked(sess)
	id := m.identity
	m.enqueueLocked(Notice{})
	m.mu.Unlock()
	m.flush()

	m.log.Info("session restored", "username", sess.Username)
	m.startFetch(id, sess.Token)
	return nil
}

// State returns the current settled state. It is never Expired.
func (m *Machine) State() models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View returns render instructions for the current state.
func (m *Machine) View() view.RenderInstructions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return view.Project(m.state, m.apiHealthy, m.workouts)
}

// RequestLogin logs in with username and password. A failure leaves the
// Machine LoggedOut and is returned as *AuthError.
func (m *Machine) RequestLogin(ctx context.Context, username, password string) error {
	creds := models.Credentials{Username: username, Password: password}.Normalize()
	if !creds.Complete() {
		return ErrMissingCredentials
	}
	if err := m.beginAuth(); err != nil {
		return err
	}
	return m.completeLogin(ctx, creds)
}

// RequestRegister creates an account and then logs in with the same
// credentials. Registration alone never produces a session: if the follow-up
// login fails, that failure is returned and nothing is persisted.
func (m *Machine) RequestRegister(ctx context.Context, creds models.Credentials) error {
	creds = creds.Normalize()
	if !creds.Complete() {
		return ErrMissingCredentials
	}
	if err := m.beginAuth(); err != nil {
		return err
	}

	res := m.api.Register(ctx, creds)
	if !res.OK {
		return m.failAuth(res.Kind, res.Message)
	}

	m.log.Info("registered, logging in", "username", creds.Username)
	m.mu.Lock()
	m.enqueueLocked(Notice{Kind: NoticeRegistered})
	m.mu.Unlock()
	m.flush()

	return m.completeLogin(ctx, creds)
}

// RequestLogout drops the session from the store and then from memory. If
// the store cannot be cleared the session stays live and the error is
// returned. Logging out while logged out does nothing.
func (m *Machine) RequestLogout(ctx context.Context) error {
	m.mu.Lock()
	switch m.state.Phase() {
	case models.PhaseLoggedOut:
		m.mu.Unlock()
		return nil
	case models.PhaseAuthenticating:
		m.mu.Unlock()
		return ErrBusy
	}

	sess, _ := m.state.Session()
	// The session stays live until it is gone from the store.
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("clearing stored session: %w", err)
	}
	m.setLoggedOutLocked()
	m.enqueueLocked(Notice{Kind: NoticeLoggedOut})
	m.mu.Unlock()
	m.flush()

	m.log.Info("logged out", "username", sess.Username)
	return nil
}

// RefreshWorkouts fetches the workout list for the live session. An
// Unauthorized answer expires the session; other failures are logged and
// ignored. Without a session it does nothing.
func (m *Machine) RefreshWorkouts(ctx context.Context) {
	m.mu.Lock()
	sess, ok := m.state.Session()
	id := m.identity
	m.mu.Unlock()
	if !ok {
		return
	}
	m.applyWorkouts(ctx, id, m.api.FetchWorkouts(ctx, sess.Token))
}

// CheckHealth pings the service and updates the health flag. It never
// changes the session state.
func (m *Machine) CheckHealth(ctx context.Context) bool {
	ok := m.api.CheckHealth(ctx)

	m.mu.Lock()
	changed := m.apiHealthy != ok
	m.apiHealthy = ok
	if changed {
		m.enqueueLocked(Notice{})
	}
	m.mu.Unlock()
	m.flush()

	if !ok {
		m.log.Warn("api health check failed")
	}
	return ok
}

// Wait blocks until background workout fetches have finished.
func (m *Machine) Wait() {
	m.bg.Wait()
}

// Close waits for background work. The store is owned by the caller.
func (m *Machine) Close() error {
	m.Wait()
	return nil
}

// beginAuth moves LoggedOut to Authenticating.
func (m *Machine) beginAuth() error {
	m.mu.Lock()
	switch m.state.Phase() {
	case models.PhaseAuthenticating:
		m.mu.Unlock()
		return ErrBusy
	case models.PhaseLoggedIn:
		m.mu.Unlock()
		return ErrAlreadyLoggedIn
	}
	m.transitionLocked(models.Authenticating())
	m.enqueueLocked(Notice{})
	m.mu.Unlock()
	m.flush()
	return nil
}

// completeLogin runs the login call and settles Authenticating into LoggedIn
// or LoggedOut.
func (m *Machine) completeLogin(ctx context.Context, creds models.Credentials) error {
	res := m.api.Login(ctx, creds.Username, creds.Password)
	if !res.OK {
		return m.failAuth(res.Kind, res.Message)
	}

	sess := models.Session{Username: creds.Username, Token: res.Value}

	m.mu.Lock()
	if err := m.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		m.transitionLocked(models.LoggedOut())
		m.enqueueLocked(Notice{Kind: NoticeAuthFailed, Message: "could not store session"})
		m.mu.Unlock()
		m.flush()
		return fmt.Errorf("saving session: %w", err)
	}
	m.setLoggedInLocked(sess)
	id := m.identity
	m.enqueueLocked(Notice{Kind: NoticeLoggedIn})
	m.mu.Unlock()
	m.flush()

	m.log.Info("logged in", "username", sess.Username)
	m.startFetch(id, sess.Token)
	return nil
}

// failAuth settles Authenticating into LoggedOut and returns the AuthError.
func (m *Machine) failAuth(kind api.FailureKind, msg string) error {
	m.mu.Lock()
	m.transitionLocked(models.LoggedOut())
	m.enqueueLocked(Notice{Kind: NoticeAuthFailed, Message: msg})
	m.mu.Unlock()
	m.flush()

	m.log.Info("authentication failed", "kind", kind.String(), "message", msg)
	return &AuthError{Kind: kind, Message: msg}
}

// startFetch runs the post-login workout fetch in the background. Its
// outcome never undoes the login.
func (m *Machine) startFetch(id uuid.UUID, token string) {
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		ctx := context.Background()
		m.applyWorkouts(ctx, id, m.api.FetchWorkouts(ctx, token))
	}()
}

// applyWorkouts applies a fetch result taken for session id. Results for a
// session that is no longer live are discarded.
func (m *Machine) applyWorkouts(ctx context.Context, id uuid.UUID, res api.Result[[]models.WorkoutRecord]) {
	m.mu.Lock()
	if id == uuid.Nil || id != m.identity {
		m.mu.Unlock()
		m.log.Debug("discarding stale workouts response", "kind", res.Kind.String())
		return
	}

	switch {
	case res.OK:
		m.workouts = res.Value
		m.enqueueLocked(Notice{})
		m.mu.Unlock()
		m.flush()

	case res.Kind == api.Unauthorized:
		sess, _ := m.state.Session()
		m.transitionLocked(models.Expired())
		// A caller that gave up waiting must not leave the dead token stored.
		if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
			m.log.Error("clearing expired session", "error", err)
		}
		m.setLoggedOutLocked()
		m.enqueueLocked(Notice{Kind: NoticeSessionExpired, Message: "session expired, please log in again"})
		m.mu.Unlock()
		m.flush()
		m.log.Warn("session expired", "username", sess.Username)

	default:
		m.mu.Unlock()
		m.log.Warn("fetching workouts failed", "kind", res.Kind.String(), "error", res.Message)
	}
}

func (m *Machine) setLoggedInLocked(sess models.Session) {
	m.transitionLocked(models.LoggedIn(sess))
	m.identity = uuid.New()
	m.workouts = nil
}

func (m *Machine) setLoggedOutLocked() {
	m.transitionLocked(models.LoggedOut())
	m.identity = uuid.Nil
	m.workouts = nil
}

func (m *Machine) transitionLocked(next models.SessionState) {
	m.log.Debug("session transition", "from", m.state.Phase().String(), "to", next.Phase().String())
	m.state = next
}

// IsAuthError reports whether err is an *AuthError and returns it.
func IsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
