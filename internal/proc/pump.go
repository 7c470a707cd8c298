package proc

import (
	"bufio"
	"io"
	"sync"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/errors"
)

// pump starts two independent line readers, one per stream, so a process
// that fills stderr while stdout sits idle can never deadlock the drain.
// Each line goes to the per-process buffer and to the capture store under
// whatever question/stage is current when the line arrives.
func (m *Manager) pump(h *Handle, stdout, stderr io.Reader, channel capture.Channel) {
	var wg sync.WaitGroup
	wg.Add(2)

	drain := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			h.appendLine(line)
			if m.opts.Store != nil {
				m.opts.Store.AppendCurrent(channel, line)
			}
		}
		if err := scanner.Err(); err != nil {
			m.recordPumpFailure(errors.Wrap(errors.CodeProcessCrashed, "output pump failed", err))
		}
	}

	go drain(stdout)
	go drain(stderr)

	// Reap the process once both streams are drained. Wait must come
	// after the pumps finish or the pipes are closed under them.
	go func() {
		wg.Wait()
		h.waitErr = h.cmd.Wait()
		close(h.done)
	}()
}
