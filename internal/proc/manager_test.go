package proc

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestStartMissingExecutable(t *testing.T) {
	m := NewManager(Options{ServerPath: "/does/not/exist"})
	err := m.StartServer(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeExecutableMissing, errors.CodeOf(err))
}

func TestStartIdempotent(t *testing.T) {
	server := writeScript(t, "server.sh", "sleep 30\n")
	m := NewManager(Options{ServerPath: server, Store: capture.NewStore()})
	t.Cleanup(func() { _ = m.StopAll() })

	require.NoError(t, m.StartServer(context.Background()))
	require.NoError(t, m.StartServer(context.Background()), "second start is a no-op")
	assert.Equal(t, 1, m.LiveHandles())
	assert.True(t, m.Alive(RoleServer))
}

func TestStopAllLeavesNoLiveHandles(t *testing.T) {
	server := writeScript(t, "server.sh", "sleep 30\n")
	client := writeScript(t, "client.sh", "sleep 30\n")
	m := NewManager(Options{ServerPath: server, ClientPath: client, Store: capture.NewStore()})

	ctx := context.Background()
	require.NoError(t, m.StartServer(ctx))
	require.NoError(t, m.StartClient(ctx))
	require.Equal(t, 2, m.LiveHandles())

	require.NoError(t, m.StopAll())
	assert.Equal(t, 0, m.LiveHandles())
	assert.False(t, m.Alive(RoleServer))
	assert.False(t, m.Alive(RoleClient))
}

func TestStopAlreadyExitedIsSuccess(t *testing.T) {
	quick := writeScript(t, "quick.sh", "exit 0\n")
	m := NewManager(Options{ServerPath: quick, Store: capture.NewStore()})

	require.NoError(t, m.StartServer(context.Background()))

	// Let the process finish on its own, then stop it.
	require.Eventually(t, func() bool { return !m.Alive(RoleServer) },
		5*time.Second, 20*time.Millisecond)
	assert.NoError(t, m.StopServer())
}

func TestPumpsDrainBothStreams(t *testing.T) {
	script := writeScript(t, "noisy.sh", "echo out-line\necho err-line >&2\n")
	store := capture.NewStore()
	store.SetCurrent("Q1", suite.StageVerify)
	m := NewManager(Options{Store: store})

	h, err := m.Start(context.Background(), script, nil, capture.ChannelClientOutput)
	require.NoError(t, err)
	require.NoError(t, h.Wait())

	out := h.Output()
	assert.Contains(t, out, "out-line")
	assert.Contains(t, out, "err-line")

	captured, ok := store.TryGetOutput(capture.Key{
		Question: "Q1", Stage: suite.StageVerify, Channel: capture.ChannelClientOutput,
	})
	require.True(t, ok)
	assert.Contains(t, captured, "out-line")
	assert.Contains(t, captured, "err-line")
	assert.Empty(t, m.PumpFailures())
}

// A long-lived process keeps streaming into whatever stage is current when
// each line arrives.
func TestPumpAttributionFollowsCurrentStage(t *testing.T) {
	script := writeScript(t, "spanner.sh", "echo first\nsleep 1\necho second\n")
	store := capture.NewStore()
	store.SetCurrent("Q1", suite.StageSetup)
	m := NewManager(Options{ServerPath: script, Store: store})

	require.NoError(t, m.StartServer(context.Background()))

	require.Eventually(t, func() bool {
		got, ok := store.TryGetOutput(capture.Key{Question: "Q1", Stage: suite.StageSetup, Channel: capture.ChannelServerOutput})
		return ok && got == "first\n"
	}, 3*time.Second, 10*time.Millisecond)

	store.SetCurrent("Q1", suite.StageVerify)

	require.Eventually(t, func() bool {
		got, ok := store.TryGetOutput(capture.Key{Question: "Q1", Stage: suite.StageVerify, Channel: capture.ChannelServerOutput})
		return ok && got == "second\n"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestKillTerminatesChildren(t *testing.T) {
	// The parent spawns a child; killing the tree must take both down.
	script := writeScript(t, "parent.sh", "sleep 30 &\nwait\n")
	m := NewManager(Options{ServerPath: script, Store: capture.NewStore()})

	require.NoError(t, m.StartServer(context.Background()))
	require.NoError(t, m.StopServer())
	assert.Equal(t, 0, m.LiveHandles())
}

func TestStartCancelledContext(t *testing.T) {
	server := writeScript(t, "server.sh", "sleep 30\n")
	m := NewManager(Options{ServerPath: server})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.StartServer(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.CodeOf(err))
}
