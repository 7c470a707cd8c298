package executor

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/regrade/internal/suite"
)

const (
	readyPollInterval = 100 * time.Millisecond
	readyTimeout      = 5 * time.Second
	readyProbeTimeout = 500 * time.Millisecond
)

// waitForServerReady polls the submission server until it accepts a probe
// or the budget runs out. HTTP runs with a health path get a GET probe;
// everything else falls back to a plain TCP connect. Failure is advisory:
// the step proceeds and the submission pays for its own slow start.
func (e *Executor) waitForServerReady(ctx context.Context) bool {
	addr := e.opts.Config.ServerAddr()
	deadline := time.Now().Add(readyTimeout)

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if e.probe(ctx, addr) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(readyPollInterval):
		}
	}
	e.log.Warn("server not ready within budget, proceeding anyway", "addr", addr)
	return false
}

func (e *Executor) probe(ctx context.Context, addr string) bool {
	if e.opts.Args.Protocol == suite.ProtocolHTTP && e.opts.Config.HealthPath != "" {
		return e.probeHTTP(ctx, addr)
	}
	conn, err := net.DialTimeout("tcp", addr, readyProbeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (e *Executor) probeHTTP(ctx context.Context, addr string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	url := "http://" + addr + e.opts.Config.HealthPath
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := e.opts.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
