package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/claude/amp/internal/session"
)

// eventBuffer is how many updates a slow stream client may lag behind before
// updates are dropped for it.
const eventBuffer = 32

// handleEvents streams Updates as server-sent events. The first event is a
// "view" snapshot of the current state; every later one is an "update".
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	ch := make(chan session.Update, eventBuffer)
	unsubscribe := s.ctl.Subscribe(func(u session.Update) {
		select {
		case ch <- u:
		default:
			s.log.Warn("dropping update for slow events client")
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snapshot := viewResponse{State: s.ctl.State(), View: s.ctl.View()}
	if err := writeEvent(w, "view", snapshot); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		s.log.Warn("events stream cannot flush", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case u := <-ch:
			if err := writeEvent(w, "update", u); err != nil {
				s.log.Debug("events client gone", "error", err)
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
