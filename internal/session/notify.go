package session

import (
	"slices"

	"github.com/google/uuid"

	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/view"
)

// NoticeKind tags a one-off signal attached to an Update.
type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	// NoticeRegistered: the account was created and the follow-up login is running.
	NoticeRegistered
	NoticeLoggedIn
	NoticeLoggedOut
	// NoticeSessionExpired: the server rejected the token and the session was dropped.
	NoticeSessionExpired
	// NoticeAuthFailed: login or registration failed; Message says why.
	NoticeAuthFailed
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeNone:
		return "none"
	case NoticeRegistered:
		return "registered"
	case NoticeLoggedIn:
		return "logged_in"
	case NoticeLoggedOut:
		return "logged_out"
	case NoticeSessionExpired:
		return "session_expired"
	case NoticeAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

func (k NoticeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notice is a user-facing signal.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

// Update is delivered to subscribers after every state change.
type Update struct {
	State  models.SessionState     `json:"state"`
	View   view.RenderInstructions `json:"view"`
	Notice Notice                  `json:"notice"`
}

type subscriber struct {
	id uuid.UUID
	fn func(Update)
}

// Subscribe registers fn to receive every Update, in transition order. fn is
// called without internal locks held and may call back into the Machine.
// The returned func removes the subscription.
func (m *Machine) Subscribe(fn func(Update)) (unsubscribe func()) {
	id := uuid.New()
	m.qmu.Lock()
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.qmu.Unlock()

	return func() {
		m.qmu.Lock()
		defer m.qmu.Unlock()
		m.subs = slices.DeleteFunc(m.subs, func(s subscriber) bool { return s.id == id })
	}
}

// enqueueLocked records an Update for the current state. Caller holds m.mu,
// which keeps the queue in transition order.
func (m *Machine) enqueueLocked(n Notice) {
	u := Update{
		State:  m.state,
		View:   view.Project(m.state, m.apiHealthy, m.workouts),
		Notice: n,
	}
	m.qmu.Lock()
	m.queue = append(m.queue, u)
	m.qmu.Unlock()
}

// flush delivers queued updates. Only one goroutine delivers at a time; a
// flush that finds delivery in progress leaves its updates to that goroutine.
func (m *Machine) flush() {
	m.qmu.Lock()
	if m.delivering {
		m.qmu.Unlock()
		return
	}
	m.delivering = true
	for len(m.queue) > 0 {
		u := m.queue[0]
		m.queue = m.queue[1:]
		subs := slices.Clone(m.subs)
		m.qmu.Unlock()

		for _, s := range subs {
			s.fn(u)
		}

		m.qmu.Lock()
	}
	m.delivering = false
	m.qmu.Unlock()
}
