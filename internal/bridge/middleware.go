package bridge

import (
	"log/slog"
	"net/http"
	"time"
)

// RequestLogging returns middleware that logs each request with its status
// and response size. Event streams are logged twice: when the stream opens
// and, with how long it stayed open, when the client goes away.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			sw.onStream = func() {
				log.Info("event stream opened", "path", r.URL.Path, "remote", r.RemoteAddr)
			}
			next.ServeHTTP(sw, r)

			if sw.stream {
				log.Info("event stream closed",
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
					"bytes", sw.bytes,
					"open_for", time.Since(start).String(),
				)
				return
			}
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.bytes,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS lets a UI served from another local origin send commands and read
// the event stream.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Cache-Control, Last-Event-ID")
		h.Set("Access-Control-Max-Age", "600")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter records the status, the bytes written, and whether the
// handler answered with an event stream.
type statusWriter struct {
	http.ResponseWriter
	status   int
	bytes    int64
	stream   bool
	wrote    bool
	onStream func()
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.wrote = true
	w.status = code
	if code == http.StatusOK && w.Header().Get("Content-Type") == "text/event-stream" {
		w.stream = true
		if w.onStream != nil {
			w.onStream()
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
