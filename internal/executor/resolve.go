package executor

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// CaptureMarker in a step value forces capture-store resolution even when
// a file of the same name happens to exist.
const CaptureMarker = "@capture"

// keyFor derives the capture key a step reads from: its question, its
// effective stage, and the channel implied by its sheet prefix.
func (e *Executor) keyFor(step suite.Step) capture.Key {
	return capture.Key{
		Question: step.QuestionCode,
		Stage:    step.EffectiveStage(),
		Channel:  channelFor(step),
	}
}

func channelFor(step suite.Step) capture.Channel {
	switch step.SheetPrefix() {
	case "OS":
		return capture.ChannelServerOutput
	case "RQ":
		return capture.ChannelServerRequest
	case "RS":
		return capture.ChannelServerResponse
	default:
		return capture.ChannelClientOutput
	}
}

// resolveExpected loads the expected-side content. An empty target or a
// file that does not exist yields empty content, which the comparison
// engine turns into an ignored verdict.
func (e *Executor) resolveExpected(step suite.Step) (string, error) {
	target := strings.TrimSpace(step.Target)
	if target == "" {
		return "", nil
	}
	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.CodeFileReadFailed, fmt.Sprintf("failed to read expected %s", target), err)
	}
	return string(data), nil
}

// resolveActual produces the actual-side content. A value naming an
// existing file wins; anything else, including the explicit marker, falls
// back to the capture store at the step's key. A missing capture is empty
// content, not an error: the comparison decides what that means.
func (e *Executor) resolveActual(step suite.Step) (content, sourcePath string, err error) {
	v := strings.TrimSpace(step.Value)
	if v != "" && v != CaptureMarker {
		if data, readErr := os.ReadFile(v); readErr == nil {
			return string(data), v, nil
		} else if !os.IsNotExist(readErr) {
			return "", "", errors.Wrap(errors.CodeFileReadFailed, fmt.Sprintf("failed to read actual %s", v), readErr)
		}
	}
	content, path := e.capturedText(step)
	return content, path, nil
}

// capturedText reads the step's capture channel and reports the on-disk
// path the content would land under.
func (e *Executor) capturedText(step suite.Step) (string, string) {
	key := e.keyFor(step)
	content, ok := e.opts.Store.TryGetOutput(key)
	if !ok {
		return "", ""
	}
	return content, capture.ActualPath(e.opts.Config.ResultRoot, key)
}

// resolveActualPath yields a filesystem path for file-level comparison:
// either the value itself or the capture flushed to disk.
func (e *Executor) resolveActualPath(step suite.Step) (string, error) {
	v := strings.TrimSpace(step.Value)
	if v != "" && v != CaptureMarker {
		if _, err := os.Stat(v); err == nil {
			return v, nil
		}
	}
	return e.opts.Store.WriteFile(e.opts.Config.ResultRoot, e.keyFor(step))
}

// fileHead returns the first bytes of a file, enough to inspect a request
// line. Empty when unreadable.
func fileHead(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, 256)
	n, _ := f.Read(buf)
	return string(buf[:n])
}

// fileSize returns a file's length in bytes, zero when unreadable.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
