// Package proc manages the lifecycle of the submission's client and server
// processes: starting them, pumping their output into the capture store,
// and force-terminating their process trees.
package proc

import (
	"context"
	"os"
	"os/exec"
	"sync"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/log"
)

// Role distinguishes the two submission processes.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// Options configures a Manager.
type Options struct {
	// ClientPath and ServerPath locate the submission executables.
	ClientPath string
	ServerPath string

	// Store receives streamed output lines, attributed to the currently
	// active question/stage at line-arrival time.
	Store *capture.Store

	Logger *log.Logger
}

// Manager starts and stops the submission's processes. Safe for use from a
// single executor goroutine; the output pumps it spawns run concurrently.
type Manager struct {
	opts Options

	mu       sync.Mutex
	client   *Handle
	server   *Handle
	extra    []*Handle
	pumpErrs []error
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	return &Manager{opts: opts}
}

// StartServer launches the server executable. Idempotent: a server that is
// still alive (checked by liveness, not a flag) makes this a no-op.
func (m *Manager) StartServer(ctx context.Context, args ...string) error {
	return m.startRole(ctx, RoleServer, m.opts.ServerPath, args)
}

// StartClient launches the client executable. Idempotent like StartServer.
func (m *Manager) StartClient(ctx context.Context, args ...string) error {
	return m.startRole(ctx, RoleClient, m.opts.ClientPath, args)
}

func (m *Manager) startRole(ctx context.Context, role Role, path string, args []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.handleFor(role); h != nil && !h.Exited() {
		m.opts.Logger.Debug("process already running", "role", string(role), "pid", h.Pid())
		return nil
	}

	channel := capture.ChannelServerOutput
	if role == RoleClient {
		channel = capture.ChannelClientOutput
	}

	h, err := m.start(ctx, path, args, channel)
	if err != nil {
		return err
	}
	m.setHandle(role, h)
	m.opts.Logger.Info("process started", "role", string(role), "pid", h.Pid())
	return nil
}

// Start launches an arbitrary executable with redirected standard streams
// and returns its handle. Output is pumped to the given channel. Used for
// variants that need custom arguments, e.g. explicit port binding.
func (m *Manager) Start(ctx context.Context, path string, args []string, channel capture.Channel) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.start(ctx, path, args, channel)
	if err != nil {
		return nil, err
	}
	m.extra = append(m.extra, h)
	return h, nil
}

// start launches the process. Caller holds mu.
//
// The run context gates starting only: cancellation is handled by the
// executor's cleanup, which must still be able to kill processes after the
// run token fires, so the context is not attached to the command itself.
func (m *Manager) start(ctx context.Context, path string, args []string, channel capture.Channel) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeCancelled, "run cancelled before process start", err)
	}
	if path == "" {
		return nil, errors.New(errors.CodeExecutableMissing, "no executable path configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Newf(errors.CodeExecutableMissing, "executable not found: %s", path)
	}

	bin, binArgs := resolveCommand(path, m.opts.Logger)
	cmd := exec.Command(bin, append(binArgs, args...)...)
	cmd.Dir = workDir(path)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(errors.CodeProcessStartFailed, "failed to open stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(errors.CodeProcessStartFailed, "failed to open stderr pipe", err)
	}
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(errors.CodeProcessStartFailed, "failed to start process", err)
	}

	h := &Handle{cmd: cmd, done: make(chan struct{})}
	m.pump(h, stdout, stderr, channel)
	return h, nil
}

// StopClient force-terminates the client's process tree. Already-exited is
// treated as success.
func (m *Manager) StopClient() error {
	m.mu.Lock()
	h := m.client
	m.client = nil
	m.mu.Unlock()
	return m.stop(RoleClient, h)
}

// StopServer force-terminates the server's process tree.
func (m *Manager) StopServer() error {
	m.mu.Lock()
	h := m.server
	m.server = nil
	m.mu.Unlock()
	return m.stop(RoleServer, h)
}

// StopAll force-terminates every process the manager started, including
// arbitrary ones launched via Start. Best-effort: the first kill failure is
// reported, remaining processes are still attempted.
func (m *Manager) StopAll() error {
	m.mu.Lock()
	handles := map[Role]*Handle{RoleClient: m.client, RoleServer: m.server}
	extras := m.extra
	m.client, m.server, m.extra = nil, nil, nil
	m.mu.Unlock()

	var firstErr error
	for role, h := range handles {
		if err := m.stop(role, h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, h := range extras {
		if err := m.stop("extra", h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) stop(role Role, h *Handle) error {
	if h == nil || h.Exited() {
		return nil
	}
	if err := killTree(h.cmd.Process.Pid); err != nil {
		m.opts.Logger.WithError(err).Warn("kill failed", "role", string(role), "pid", h.Pid())
		return errors.Wrap(errors.CodeProcessKillFailed, "failed to kill process tree", err)
	}
	<-h.done
	m.opts.Logger.Debug("process stopped", "role", string(role))
	return nil
}

// Alive reports whether the process for role is running.
func (m *Manager) Alive(role Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.handleFor(role)
	return h != nil && !h.Exited()
}

// LiveHandles counts processes the manager considers running.
func (m *Manager) LiveHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, h := range []*Handle{m.client, m.server} {
		if h != nil && !h.Exited() {
			n++
		}
	}
	for _, h := range m.extra {
		if !h.Exited() {
			n++
		}
	}
	return n
}

// ClientOutput returns everything the client wrote so far.
func (m *Manager) ClientOutput() string {
	m.mu.Lock()
	h := m.client
	m.mu.Unlock()
	if h == nil {
		return ""
	}
	return h.Output()
}

// ServerOutput returns everything the server wrote so far.
func (m *Manager) ServerOutput() string {
	m.mu.Lock()
	h := m.server
	m.mu.Unlock()
	if h == nil {
		return ""
	}
	return h.Output()
}

// PumpFailures returns errors collected from output pumps, surfaced at run
// teardown rather than silently swallowed.
func (m *Manager) PumpFailures() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.pumpErrs...)
}

func (m *Manager) handleFor(role Role) *Handle {
	if role == RoleClient {
		return m.client
	}
	return m.server
}

func (m *Manager) setHandle(role Role, h *Handle) {
	if role == RoleClient {
		m.client = h
		return
	}
	m.server = h
}

func (m *Manager) recordPumpFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pumpErrs = append(m.pumpErrs, err)
}
