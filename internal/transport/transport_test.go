package transport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDirectClient verifies that without tailscale the client is a plain
// client carrying the configured timeout.
func TestDirectClient(t *testing.T) {
	tr, err := New(Options{Timeout: 3 * time.Second}, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Close()

	if tr.Tailnet() {
		t.Error("Tailnet() = true, want false")
	}
	if got := tr.HTTPClient().Timeout; got != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", got)
	}
}

// TestDirectClientTimesOut verifies that a hanging server fails the request
// instead of blocking the caller.
func TestDirectClientTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tr, err := New(Options{Timeout: 50 * time.Millisecond}, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := tr.HTTPClient().Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected timeout error")
	}
}

// TestDirectListen verifies that the bridge listener binds the given address.
func TestDirectListen(t *testing.T) {
	tr, err := New(Options{Timeout: time.Second}, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ln, err := tr.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	go srv.Serve(ln)
	defer srv.Close()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}
