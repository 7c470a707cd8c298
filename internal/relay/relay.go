// Package relay implements the traffic middleware that sits between the
// submission's client and server so request and response payloads can be
// captured. The executor consumes it only through the Middleware contract.
package relay

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/log"
)

// Middleware is the contract the step executor depends on. It treats the
// relay as opaque: start it, optionally drive one proxied exchange, stop it.
type Middleware interface {
	// Start begins listening. In HTTP mode traffic is captured passively
	// for the relay's whole lifetime; in TCP mode each exchange is driven
	// by a Proxy call.
	Start(ctx context.Context, useHTTP bool) error

	// Stop shuts the relay down and releases the listener.
	Stop(ctx context.Context) error

	// Proxy relays one exchange, writing captured request/response data
	// into the store under the currently active question/stage. Returns
	// whether an exchange was captured.
	Proxy(ctx context.Context, store *capture.Store) (bool, error)
}

// Relay is the production Middleware: a TCP byte relay or an HTTP reverse
// proxy, selected at Start.
type Relay struct {
	listenAddr string
	targetAddr string
	store      *capture.Store
	logger     *log.Logger

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	useHTTP  bool
}

// New creates a relay forwarding listenAddr to targetAddr.
func New(listenAddr, targetAddr string, store *capture.Store, logger *log.Logger) *Relay {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Relay{
		listenAddr: listenAddr,
		targetAddr: targetAddr,
		store:      store,
		logger:     logger,
	}
}

// Addr returns the address the relay is listening on, once started.
func (r *Relay) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return ""
	}
	return r.listener.Addr().String()
}

// Start implements Middleware.
func (r *Relay) Start(ctx context.Context, useHTTP bool) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.CodeCancelled, "run cancelled before relay start", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", r.listenAddr)
	if err != nil {
		return errors.Wrap(errors.CodeRelayFailed, "relay failed to listen", err)
	}
	r.listener = ln
	r.useHTTP = useHTTP
	r.logger.Info("relay listening", "addr", ln.Addr().String(), "target", r.targetAddr, "http", useHTTP)

	if useHTTP {
		r.server = r.newHTTPProxy()
		go func() {
			if serveErr := r.server.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
				r.logger.WithError(serveErr).Warn("relay server stopped")
			}
		}()
	}
	return nil
}

// Stop implements Middleware. Safe to call when never started.
func (r *Relay) Stop(ctx context.Context) error {
	r.mu.Lock()
	server := r.server
	listener := r.listener
	r.server = nil
	r.listener = nil
	r.mu.Unlock()

	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			return errors.Wrap(errors.CodeRelayFailed, "relay shutdown failed", err)
		}
		return nil
	}
	if listener != nil {
		if err := listener.Close(); err != nil {
			return errors.Wrap(errors.CodeRelayFailed, "relay close failed", err)
		}
	}
	return nil
}

// Proxy implements Middleware. In HTTP mode capture happens passively in
// the handler, so Proxy only confirms the relay is up.
func (r *Relay) Proxy(ctx context.Context, store *capture.Store) (bool, error) {
	r.mu.Lock()
	listener := r.listener
	useHTTP := r.useHTTP
	r.mu.Unlock()

	if listener == nil {
		return false, errors.New(errors.CodeRelayFailed, "relay not started")
	}
	if useHTTP {
		return true, nil
	}
	return r.proxyOnce(ctx, listener, store)
}
