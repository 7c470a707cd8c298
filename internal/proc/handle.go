package proc

import (
	"os/exec"
	"strings"
	"sync"
)

// Handle tracks one spawned process and its buffered output.
type Handle struct {
	cmd *exec.Cmd

	mu  sync.Mutex
	out strings.Builder

	// done closes after both output pumps drain and Wait returns.
	done    chan struct{}
	waitErr error
}

// Pid returns the OS process ID.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Exited reports whether the process has terminated. Crash is observed
// indirectly: streams close, Wait returns, done closes.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits and returns its wait error.
func (h *Handle) Wait() error {
	<-h.done
	return h.waitErr
}

// Output returns everything the process wrote to stdout and stderr so far.
func (h *Handle) Output() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.out.String()
}

func (h *Handle) appendLine(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.out.WriteString(line)
	h.out.WriteByte('\n')
}
