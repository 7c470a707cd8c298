package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/compare"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// stepOutcome is the handler-side view of a step result before scoring.
type stepOutcome struct {
	ok         bool
	ignored    bool
	code       errors.Code
	message    string
	detailPath string
	actualPath string
}

func okOutcome(message string) stepOutcome {
	return stepOutcome{ok: true, code: errors.CodeNone, message: message}
}

func failOutcome(err error) stepOutcome {
	return stepOutcome{ok: false, code: errors.CodeOf(err), message: err.Error()}
}

// dispatch routes a step to its handler. The switch is exhaustive over the
// action vocabulary; the loader guarantees nothing else reaches here, and
// the default arm catches drift between the two.
func (e *Executor) dispatch(ctx context.Context, step suite.Step) stepOutcome {
	switch step.Action {
	case suite.ActionClientStart:
		return e.clientStart(ctx, step)
	case suite.ActionServerStart:
		return e.serverStart(ctx, step)
	case suite.ActionClientClose:
		return e.bestEffortKill("client", e.opts.Proc.StopClient())
	case suite.ActionServerClose:
		return e.bestEffortKill("server", e.opts.Proc.StopServer())
	case suite.ActionKillAll:
		return e.bestEffortKill("all processes", e.opts.Proc.StopAll())
	case suite.ActionRunClient:
		return e.runClient(ctx, step)
	case suite.ActionRunServer:
		return e.runServer(ctx, step)
	case suite.ActionWait:
		return e.wait(ctx, step)
	case suite.ActionHTTPRequest:
		return e.httpRequest(ctx, step)
	case suite.ActionAssertText:
		return e.assertText(step)
	case suite.ActionCaptureFile:
		return e.captureFile(step)
	case suite.ActionCompareFile:
		return e.compareFile(step)
	case suite.ActionCompareText:
		return e.compareContent(step, func(expected, actual string) compare.Verdict {
			return compare.CompareText(expected, actual, compare.DefaultTextOptions())
		})
	case suite.ActionCompareJSON:
		return e.compareContent(step, func(expected, actual string) compare.Verdict {
			return compare.CompareJSON(expected, actual, true)
		})
	case suite.ActionCompareCSV:
		return e.compareContent(step, func(expected, actual string) compare.Verdict {
			return compare.CompareCSV(expected, actual, true)
		})
	case suite.ActionTCPRelay:
		return e.tcpRelay(ctx, step)
	default:
		return stepOutcome{
			ok:      false,
			code:    errors.CodeUnsupportedAction,
			message: fmt.Sprintf("no handler for action %q", step.Action),
		}
	}
}

func (e *Executor) clientStart(ctx context.Context, step suite.Step) stepOutcome {
	// The client usually connects immediately, so give the server a
	// chance to come up first. A missed wait is logged, never fatal.
	e.waitForServerReady(ctx)
	if err := e.opts.Proc.StartClient(ctx, splitArgs(step.Value)...); err != nil {
		return failOutcome(err)
	}
	return okOutcome("client started")
}

func (e *Executor) serverStart(ctx context.Context, step suite.Step) stepOutcome {
	if err := e.opts.Proc.StartServer(ctx, splitArgs(step.Value)...); err != nil {
		return failOutcome(err)
	}
	e.waitForServerReady(ctx)
	return okOutcome("server started")
}

// bestEffortKill converts a kill failure into a passing result with a
// distinct code: the step that requested the kill is not at fault, but the
// failure must stay visible in the grade sheet.
func (e *Executor) bestEffortKill(what string, err error) stepOutcome {
	if err != nil {
		e.opts.Logger.WithError(err).Warn("kill failed", "target", what)
		return stepOutcome{
			ok:      true,
			code:    errors.CodeProcessKillFailed,
			message: fmt.Sprintf("kill %s failed: %v", what, err),
		}
	}
	return okOutcome(fmt.Sprintf("stopped %s", what))
}

// runClient launches the client and blocks until it exits or the step
// times out. Exit status is irrelevant here; what the client printed is
// graded by later compare steps.
func (e *Executor) runClient(ctx context.Context, step suite.Step) stepOutcome {
	e.waitForServerReady(ctx)
	h, err := e.opts.Proc.Start(ctx, e.opts.Config.ClientPath, splitArgs(step.Value), capture.ChannelClientOutput)
	if err != nil {
		return failOutcome(err)
	}
	if err := waitHandle(ctx, h); err != nil {
		return failOutcome(err)
	}
	return okOutcome("client run finished")
}

// runServer launches the server as a one-shot process and returns once it
// answers the readiness probe, leaving it alive for subsequent steps.
func (e *Executor) runServer(ctx context.Context, step suite.Step) stepOutcome {
	_, err := e.opts.Proc.Start(ctx, e.opts.Config.ServerPath, splitArgs(step.Value), capture.ChannelServerOutput)
	if err != nil {
		return failOutcome(err)
	}
	e.waitForServerReady(ctx)
	return okOutcome("server running")
}

func (e *Executor) wait(ctx context.Context, step suite.Step) stepOutcome {
	d := parseWaitDuration(step.Value)
	select {
	case <-time.After(d):
		return okOutcome(fmt.Sprintf("waited %s", d))
	case <-ctx.Done():
		return failOutcome(errors.Wrap(errors.CodeTimeout, "wait interrupted", ctx.Err()))
	}
}

func (e *Executor) assertText(step suite.Step) stepOutcome {
	actual, actualPath := e.capturedText(step)
	verdict := compare.CompareText(step.Value, actual, compare.DefaultTextOptions())
	return e.verdictOutcome(step, verdict, actualPath)
}

// captureFile flushes the step's capture channel to disk so later steps
// and post-run inspection can reach it as a file.
func (e *Executor) captureFile(step suite.Step) stepOutcome {
	key := e.keyFor(step)
	path, err := e.opts.Store.WriteFile(e.opts.Config.ResultRoot, key)
	if err != nil {
		return failOutcome(err)
	}
	out := okOutcome(fmt.Sprintf("captured %s", path))
	out.actualPath = path
	return out
}

func (e *Executor) compareFile(step suite.Step) stepOutcome {
	actualPath, err := e.resolveActualPath(step)
	if err != nil {
		return failOutcome(err)
	}

	verdict := compare.CompareFile(step.Target, actualPath)

	// On request/response sheets a size difference may still pass under
	// the byte-size tolerance before the hash gets a say.
	if !verdict.Equal && verdict.Code == errors.CodeFileSizeMismatch && e.byteSizeTolerated(step) {
		sizes := compare.CompareByteSize(fileSize(step.Target), fileSize(actualPath))
		if sizes.Equal {
			verdict = sizes
		}
	}
	if verdict.Equal && !verdict.Ignored {
		if mv := e.methodVerdict(step, fileHead(step.Target)); mv != nil {
			verdict = *mv
		}
	}
	return e.verdictOutcome(step, verdict, actualPath)
}

// byteSizeTolerated reports whether tolerant byte-size matching applies to
// this step: only data sheets carry HTTP payloads, and the toggle must be on.
func (e *Executor) byteSizeTolerated(step suite.Step) bool {
	if !e.opts.Config.Grading.IsEnabled(suite.ValidationByteSize) {
		return false
	}
	prefix := step.SheetPrefix()
	return prefix == "RQ" || prefix == "RS"
}

func (e *Executor) compareContent(step suite.Step, cmp func(expected, actual string) compare.Verdict) stepOutcome {
	expected, err := e.resolveExpected(step)
	if err != nil {
		return failOutcome(err)
	}
	actual, actualPath, err := e.resolveActual(step)
	if err != nil {
		return failOutcome(err)
	}
	verdict := cmp(expected, actual)
	if verdict.Equal && !verdict.Ignored {
		if mv := e.methodVerdict(step, expected); mv != nil {
			verdict = *mv
		}
	}
	return e.verdictOutcome(step, verdict, actualPath)
}

// methodVerdict cross-checks the wire-observed HTTP method against the one
// the expected request capture opens with. Only request-sheet comparisons
// carry a method expectation, and only when the relay (or a scripted
// request) attached metadata to the exchange. Returns nil when the check
// does not apply or the method matches.
func (e *Executor) methodVerdict(step suite.Step, expected string) *compare.Verdict {
	if step.SheetPrefix() != "RQ" || !e.opts.Config.Grading.IsEnabled(suite.ValidationHTTPMethod) {
		return nil
	}
	want := requestMethod(expected)
	if want == "" {
		return nil
	}

	key := e.keyFor(step)
	key.Channel = capture.ChannelServerResponse // metadata rides on the response side
	meta, ok := e.opts.Store.TryGetHTTPMetadata(key)
	if !ok || meta.Method == "" {
		return nil
	}

	v := compare.CompareHTTPMethod(want, meta.Method)
	if v.Equal {
		return nil
	}
	return &v
}

// requestMethod extracts the method token a request capture starts with.
// Empty for payloads that do not look like HTTP.
func requestMethod(payload string) string {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return ""
	}
	switch m := strings.ToUpper(fields[0]); m {
	case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS":
		return m
	default:
		return ""
	}
}

func (e *Executor) tcpRelay(ctx context.Context, step suite.Step) stepOutcome {
	if e.opts.Relay == nil {
		return stepOutcome{ok: false, code: errors.CodeRelayFailed, message: "no relay configured"}
	}
	captured, err := e.opts.Relay.Proxy(ctx, e.opts.Store)
	if err != nil {
		return failOutcome(err)
	}
	if !captured {
		return okOutcome("relay passive, nothing to drive")
	}
	return okOutcome("relayed one exchange")
}

// verdictOutcome folds a comparison verdict into an outcome, writing a diff
// artifact on mismatch so the grader can see what diverged.
func (e *Executor) verdictOutcome(step suite.Step, verdict compare.Verdict, actualPath string) stepOutcome {
	out := stepOutcome{
		ok:         verdict.Equal,
		ignored:    verdict.Ignored,
		code:       verdict.Code,
		message:    verdict.Message,
		actualPath: actualPath,
	}
	if !verdict.Equal {
		diffDir := filepath.Join(e.opts.Config.ResultRoot, "diff")
		path, err := compare.WriteDiffArtifact(diffDir, step.ID, verdict)
		if err != nil {
			e.opts.Logger.WithError(err).Warn("failed to write diff artifact", "step", step.ID)
		} else {
			out.detailPath = path
		}
	}
	return out
}

// waitHandle blocks on process exit or context expiry.
func waitHandle(ctx context.Context, h interface{ Wait() error }) error {
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	select {
	case <-done:
		// A nonzero exit is not a step failure; output grading decides.
		return nil
	case <-ctx.Done():
		return errors.Wrap(errors.CodeTimeout, "process did not exit in time", ctx.Err())
	}
}

// splitArgs turns a step value into argv. Empty values mean no arguments.
func splitArgs(value string) []string {
	return strings.Fields(value)
}

// parseWaitDuration accepts plain seconds ("2"), Go durations ("500ms"),
// and defaults to one second for anything else.
func parseWaitDuration(value string) time.Duration {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Second
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	return time.Second
}
