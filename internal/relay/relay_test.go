package relay

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// startEchoServer runs a TCP server that answers each connection with a
// fixed banner plus everything the client sent.
func startEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				data, _ := io.ReadAll(c)
				fmt.Fprintf(c, "echo:%s", data)
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestTCPRelayCapturesBothDirections(t *testing.T) {
	store := capture.NewStore()
	store.SetCurrent("Q1", suite.StageInput)
	target := startEchoServer(t)

	r := New("127.0.0.1:0", target, store, nil)
	ctx := context.Background()
	require.NoError(t, r.Start(ctx, false))
	t.Cleanup(func() { _ = r.Stop(context.Background()) })

	type proxyResult struct {
		ok  bool
		err error
	}
	resultCh := make(chan proxyResult, 1)
	go func() {
		ok, err := r.Proxy(ctx, store)
		resultCh <- proxyResult{ok, err}
	}()

	conn, err := net.Dial("tcp", r.Addr())
	require.NoError(t, err)
	_, err = conn.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "echo:payload", string(resp))
	conn.Close()

	res := <-resultCh
	require.NoError(t, res.err)
	assert.True(t, res.ok)

	req, ok := store.TryGetOutput(capture.Key{Question: "Q1", Stage: suite.StageInput, Channel: capture.ChannelServerRequest})
	require.True(t, ok)
	assert.Equal(t, "payload", req)

	respCap, ok := store.TryGetOutput(capture.Key{Question: "Q1", Stage: suite.StageInput, Channel: capture.ChannelServerResponse})
	require.True(t, ok)
	assert.Equal(t, "echo:payload", respCap)

	meta, ok := store.TryGetHTTPMetadata(capture.Key{Question: "Q1", Stage: suite.StageInput, Channel: capture.ChannelServerResponse})
	require.True(t, ok)
	assert.Equal(t, int64(len("echo:payload")), meta.ByteSize)
}

func TestProxyCancellationUnwinds(t *testing.T) {
	store := capture.NewStore()
	r := New("127.0.0.1:0", "127.0.0.1:1", store, nil)
	require.NoError(t, r.Start(context.Background(), false))
	t.Cleanup(func() { _ = r.Stop(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Proxy(ctx, store)
	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.CodeOf(err))
	// Unwinds within roughly one poll interval of the deadline.
	assert.Less(t, time.Since(start), time.Second)
}

func TestProxyWithoutStart(t *testing.T) {
	r := New("127.0.0.1:0", "127.0.0.1:1", capture.NewStore(), nil)
	_, err := r.Proxy(context.Background(), capture.NewStore())
	require.Error(t, err)
	assert.Equal(t, errors.CodeRelayFailed, errors.CodeOf(err))
}

func TestHTTPRelayCapturesExchange(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"got":%q}`, string(body))
	}))
	t.Cleanup(backend.Close)

	store := capture.NewStore()
	store.SetCurrent("Q2", suite.StageVerify)

	r := New("127.0.0.1:0", strings.TrimPrefix(backend.URL, "http://"), store, nil)
	require.NoError(t, r.Start(context.Background(), true))
	t.Cleanup(func() { _ = r.Stop(context.Background()) })

	resp, err := http.Post("http://"+r.Addr()+"/data", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	ok, err := r.Proxy(context.Background(), store)
	require.NoError(t, err)
	assert.True(t, ok)

	reqKey := capture.Key{Question: "Q2", Stage: suite.StageVerify, Channel: capture.ChannelServerRequest}
	respKey := capture.Key{Question: "Q2", Stage: suite.StageVerify, Channel: capture.ChannelServerResponse}

	reqBody, found := store.TryGetOutput(reqKey)
	require.True(t, found)
	assert.Equal(t, "hello", reqBody)

	respBody, found := store.TryGetOutput(respKey)
	require.True(t, found)
	assert.Contains(t, respBody, "hello")

	meta, found := store.TryGetHTTPMetadata(respKey)
	require.True(t, found)
	assert.Equal(t, "POST", meta.Method)
	assert.Equal(t, "201", meta.StatusCode)
}
