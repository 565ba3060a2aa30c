package models

import "encoding/json"

// Phase names the variant of a SessionState.
type Phase int

const (
	PhaseLoggedOut Phase = iota
	PhaseAuthenticating
	PhaseLoggedIn
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseLoggedOut:
		return "logged_out"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseLoggedIn:
		return "logged_in"
	case PhaseExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// SessionState is one of LoggedOut, Authenticating, LoggedIn(Session) or
// Expired. Its fields are unexported so a value can only be built through the
// constructors below; only LoggedIn carries a session.
type SessionState struct {
	phase   Phase
	session Session
}

func LoggedOut() SessionState      { return SessionState{phase: PhaseLoggedOut} }
func Authenticating() SessionState { return SessionState{phase: PhaseAuthenticating} }
func Expired() SessionState        { return SessionState{phase: PhaseExpired} }

// LoggedIn returns the logged-in state for s. An invalid session yields LoggedOut.
func LoggedIn(s Session) SessionState {
	if !s.Valid() {
		return LoggedOut()
	}
	return SessionState{phase: PhaseLoggedIn, session: s}
}

func (s SessionState) Phase() Phase { return s.phase }

// Session returns the live session, if any.
func (s SessionState) Session() (Session, bool) {
	return s.session, s.phase == PhaseLoggedIn
}

func (s SessionState) LoggedIn() bool { return s.phase == PhaseLoggedIn }

func (s SessionState) String() string {
	if s.phase == PhaseLoggedIn {
		return s.phase.String() + "(" + s.session.Username + ")"
	}
	return s.phase.String()
}

// MarshalJSON never includes the token.
func (s SessionState) MarshalJSON() ([]byte, error) {
	out := struct {
		Phase    string `json:"phase"`
		Username string `json:"username,omitempty"`
	}{Phase: s.phase.String()}
	if s.phase == PhaseLoggedIn {
		out.Username = s.session.Username
	}
	return json.Marshal(out)
}
