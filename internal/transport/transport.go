// Package transport provides the HTTP client used to reach the workout API
// and the listener for the local bridge, either directly or over a tailnet.
package transport

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"
)

type Options struct {
	Timeout time.Duration

	// Tailscale, when set, joins the tailnet as Hostname with node state in
	// StateDir.
	Tailscale bool
	Hostname  string
	StateDir  string
}

// Transport owns the network path to the API.
type Transport struct {
	client *http.Client
	ts     *tsnet.Server
	log    *slog.Logger
}

// New builds a Transport. With Tailscale set it starts an embedded tsnet
// node, which may block until the node is authorized.
func New(opts Options, log *slog.Logger) (*Transport, error) {
	if !opts.Tailscale {
		return &Transport{
			client: &http.Client{Timeout: opts.Timeout},
			log:    log,
		}, nil
	}

	ts := &tsnet.Server{
		Hostname: opts.Hostname,
		Dir:      opts.StateDir,
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...), "component", "tsnet")
		},
	}
	if err := ts.Start(); err != nil {
		return nil, fmt.Errorf("starting tsnet: %w", err)
	}
	log.Info("tsnet node started", "hostname", opts.Hostname)

	client := ts.HTTPClient()
	client.Timeout = opts.Timeout
	return &Transport{client: client, ts: ts, log: log}, nil
}

// HTTPClient returns the client for API requests.
func (t *Transport) HTTPClient() *http.Client {
	return t.client
}

// Tailnet reports whether traffic goes over tsnet.
func (t *Transport) Tailnet() bool {
	return t.ts != nil
}

// Listen opens the bridge listener. On a tailnet only the port of addr is
// used and the bridge is reachable at the node's tailnet address.
func (t *Transport) Listen(addr string) (net.Listener, error) {
	if t.ts == nil {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		return ln, nil
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parsing bridge addr %q: %w", addr, err)
	}
	ln, err := t.ts.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("tsnet listen on :%s: %w", port, err)
	}
	return ln, nil
}

// Close shuts down the tsnet node, if any.
func (t *Transport) Close() error {
	if t.ts == nil {
		return nil
	}
	if err := t.ts.Close(); err != nil {
		return fmt.Errorf("closing tsnet: %w", err)
	}
	return nil
}
