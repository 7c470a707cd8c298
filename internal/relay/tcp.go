package relay

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/errors"
)

// acceptPollInterval bounds how long a cancelled Proxy call keeps blocking
// in Accept.
const acceptPollInterval = 100 * time.Millisecond

// proxyOnce accepts a single client connection, relays it to the target,
// and captures both directions into the store under the current key.
func (r *Relay) proxyOnce(ctx context.Context, listener net.Listener, store *capture.Store) (bool, error) {
	clientConn, err := r.acceptWithContext(ctx, listener)
	if err != nil {
		return false, err
	}
	defer clientConn.Close()

	serverConn, err := net.Dial("tcp", r.targetAddr)
	if err != nil {
		return false, errors.Wrap(errors.CodeRelayFailed, "relay failed to reach server", err)
	}
	defer serverConn.Close()

	var reqBuf, respBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)

	// Cancellation unwinds the copies by closing both ends.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			clientConn.Close()
			serverConn.Close()
		case <-done:
		}
	}()

	go func() {
		defer wg.Done()
		_, _ = io.Copy(io.MultiWriter(serverConn, &reqBuf), clientConn)
		// Client finished sending; let the server observe EOF.
		if tc, ok := serverConn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(io.MultiWriter(clientConn, &respBuf), serverConn)
		if tc, ok := clientConn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
	}()

	wg.Wait()
	close(done)

	question, stage := store.Current()
	reqKey := capture.Key{Question: question, Stage: stage, Channel: capture.ChannelServerRequest}
	respKey := capture.Key{Question: question, Stage: stage, Channel: capture.ChannelServerResponse}
	store.Set(reqKey, reqBuf.String())
	store.Set(respKey, respBuf.String())
	store.SetHTTPMetadata(respKey, capture.HTTPMetadata{
		Method:     tcpMethodHint(reqBuf.String()),
		StatusCode: tcpStatusHint(respBuf.String()),
		ByteSize:   int64(respBuf.Len()),
	})

	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(errors.CodeCancelled, "relay exchange cancelled", err)
	}
	r.logger.Debug("relayed exchange", "request_bytes", reqBuf.Len(), "response_bytes", respBuf.Len())
	return true, nil
}

// acceptWithContext polls Accept so cancellation unwinds within one
// interval instead of blocking indefinitely.
func (r *Relay) acceptWithContext(ctx context.Context, listener net.Listener) (net.Conn, error) {
	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		return listener.Accept()
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.CodeCancelled, "relay accept cancelled", err)
		}
		_ = tcpListener.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, err := tcpListener.Accept()
		if err == nil {
			return conn, nil
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			continue
		}
		return nil, errors.Wrap(errors.CodeRelayFailed, "relay accept failed", err)
	}
}

// tcpMethodHint extracts an HTTP-looking method from a raw request, when
// the TCP payload happens to be HTTP. Empty otherwise.
func tcpMethodHint(request string) string {
	fields := strings.Fields(request)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS":
		return fields[0]
	default:
		return ""
	}
}

// tcpStatusHint extracts a status code from an HTTP-looking response line.
func tcpStatusHint(response string) string {
	fields := strings.Fields(response)
	if len(fields) >= 2 && strings.HasPrefix(fields[0], "HTTP/") {
		if _, err := strconv.Atoi(fields[1]); err == nil {
			return fields[1]
		}
	}
	return ""
}
