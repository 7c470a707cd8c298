// Package executor interprets grading steps one at a time: it drives the
// process lifecycle manager and the traffic relay, resolves actual content
// through the capture store, invokes the comparison engine, and emits one
// scored result per step.
package executor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/config"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/log"
	"github.com/felixgeelhaar/regrade/internal/proc"
	"github.com/felixgeelhaar/regrade/internal/relay"
	"github.com/felixgeelhaar/regrade/internal/report"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// Options wires the executor's collaborators.
type Options struct {
	Proc     *proc.Manager
	Store    *capture.Store
	Relay    relay.Middleware
	Config   config.Config
	Args     suite.ExecuteSuiteArgs
	Reporter report.Reporter
	Logger   *log.Logger

	// HTTPClient issues HttpRequest steps. Defaults to a client with a
	// conservative timeout.
	HTTPClient *http.Client

	// RunID stamps the final report.
	RunID string
}

// Executor runs one finite suite per instance.
type Executor struct {
	opts Options
	log  *log.Logger
}

// New creates an Executor. Store and Proc are required; everything else
// has usable defaults.
func New(opts Options) *Executor {
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	if opts.Reporter == nil {
		opts.Reporter = report.NewLogReporter(opts.Logger)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Args.StageTimeout <= 0 {
		opts.Args.StageTimeout = 30 * time.Second
	}
	return &Executor{opts: opts, log: opts.Logger}
}

// ExecuteSuite runs the steps sequentially, in order. Every step produces
// exactly one result, even on crash or cancellation; a misbehaving step
// never aborts the run, though cancellation stops dispatching further
// steps. Teardown force-kills anything still running regardless of the
// run token's state.
func (e *Executor) ExecuteSuite(ctx context.Context, steps []suite.Step) report.RunReport {
	start := time.Now()
	rep := report.RunReport{RunID: e.opts.RunID}

	for _, step := range steps {
		result := e.executeStep(ctx, step)
		rep.Add(result)
		e.opts.Reporter.Step(result)

		if ctx.Err() != nil {
			e.log.Warn("run cancelled, skipping remaining steps", "after_step", step.ID)
			break
		}
	}

	e.teardown(&rep)

	rep.Duration = time.Since(start)
	e.opts.Reporter.Summary(rep)
	return rep
}

// teardown kills leftover processes and stops the relay. It deliberately
// does not use the run context: a cancelled run must still be able to
// clean up, or processes leak.
func (e *Executor) teardown(rep *report.RunReport) {
	if e.opts.Proc != nil {
		if err := e.opts.Proc.StopAll(); err != nil {
			e.log.WithError(err).Warn("teardown kill failed")
		}
		failures := e.opts.Proc.PumpFailures()
		rep.PumpFailures = len(failures)
		for _, err := range failures {
			e.log.WithError(err).Warn("output pump failed during run")
		}
	}
	if e.opts.Relay != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.opts.Relay.Stop(stopCtx); err != nil {
			e.log.WithError(err).Warn("relay stop failed")
		}
	}
}

// executeStep runs one step under the stage timeout and converts every
// outcome, including panics, into a scored result.
func (e *Executor) executeStep(ctx context.Context, step suite.Step) (result report.StepResult) {
	start := time.Now()
	result = report.StepResult{
		StepID:   step.ID,
		Question: step.QuestionCode,
		Action:   string(step.Action),
	}
	defer func() {
		if r := recover(); r != nil {
			result.OK = false
			result.Code = errors.CodeUnknown
			result.Message = fmt.Sprintf("step panicked: %v", r)
			result.PointsAwarded = 0
			// A crashed comparison still owes its point to the total.
			if !result.Skipped && step.Action.IsCompare() {
				result.PointsPossible = 1
			}
		}
		result.Duration = time.Since(start)
	}()

	if skipped, reason := e.gate(step); skipped {
		result.OK = true
		result.Skipped = true
		result.Code = errors.CodeNone
		result.Message = reason
		return result
	}

	// Mark the run's current position before any side effects so
	// streaming output lands under this step's key.
	e.opts.Store.SetCurrent(step.QuestionCode, step.EffectiveStage())

	stepCtx, cancel := context.WithTimeout(ctx, e.opts.Args.StageTimeout)
	defer cancel()

	outcome := e.dispatch(stepCtx, step)

	if err := stepCtx.Err(); err != nil && !outcome.ok {
		// Timeout or cancellation beats whatever the handler reported.
		outcome.code = errors.CodeTimeout
		if ctx.Err() != nil {
			outcome.code = errors.CodeCancelled
		}
		outcome.message = fmt.Sprintf("step did not finish: %v", err)
	}

	result.OK = outcome.ok
	result.Code = outcome.code
	result.Message = outcome.message
	result.DetailPath = outcome.detailPath
	result.ActualPath = outcome.actualPath

	result.PointsPossible = e.pointsPossible(step, outcome)
	if result.OK {
		result.PointsAwarded = result.PointsPossible
	}
	return result
}

// gate decides whether a step is scored at all. Gated-off steps have no
// side effects.
func (e *Executor) gate(step suite.Step) (bool, string) {
	if !e.opts.Config.Grading.ShouldGradeStep(step.ID) {
		return true, "sheet disabled"
	}
	if kind := step.ValidationKind(); !e.opts.Config.Grading.IsEnabled(kind) {
		return true, fmt.Sprintf("validation %s disabled", kind)
	}
	if step.Action == suite.ActionAssertText && step.EffectiveStage() == suite.StageInput {
		// Standard-input assertions cannot be verified after the fact.
		return true, "input-stage text assertions are not verifiable"
	}
	if e.isDataTypeGated(step) {
		return true, "data type validation disabled"
	}
	return false, ""
}

// isDataTypeGated treats structural JSON/CSV comparisons as data-type
// validations: disabling ValidateDataType skips them.
func (e *Executor) isDataTypeGated(step suite.Step) bool {
	if step.Action != suite.ActionCompareJSON && step.Action != suite.ActionCompareCSV {
		return false
	}
	return !e.opts.Config.Grading.IsEnabled(suite.ValidationDataType)
}

// pointsPossible is 1 for compare actions, except when the verdict was
// ignored under the missing-expected policy. Control actions carry no
// weight.
func (e *Executor) pointsPossible(step suite.Step, outcome stepOutcome) int {
	if !step.Action.IsCompare() {
		return 0
	}
	if outcome.ignored {
		return 0
	}
	return 1
}
