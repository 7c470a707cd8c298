// Package report carries scored step results to their consumers. The core
// executor emits one StepResult per step and a RunReport at the end; how
// those are rendered (console, logs, grade sheet) is this package's job.
package report

import (
	"time"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// StepResult is the scored outcome of one step. Produced exactly once per
// step, immutable afterwards.
type StepResult struct {
	StepID   string
	Question string
	Action   string

	// OK reports step success. Skipped results are OK with zero weight.
	OK      bool
	Skipped bool

	Message        string
	PointsAwarded  int
	PointsPossible int
	Code           errors.Code
	Duration       time.Duration

	// DetailPath points at a diff artifact when a comparison failed.
	DetailPath string

	// ActualPath points at the captured actual content on disk, when the
	// step resolved its operand through the capture store.
	ActualPath string
}

// RunReport summarizes a finished run.
type RunReport struct {
	RunID          string
	Results        []StepResult
	PointsAwarded  int
	PointsPossible int
	Duration       time.Duration

	// PumpFailures counts background output-pump errors surfaced at
	// teardown.
	PumpFailures int
}

// Add appends a result and folds its points into the totals.
func (r *RunReport) Add(res StepResult) {
	r.Results = append(r.Results, res)
	r.PointsAwarded += res.PointsAwarded
	r.PointsPossible += res.PointsPossible
}

// QuestionTotals rolls points up per question code, preserving first-seen
// order.
func (r *RunReport) QuestionTotals() []QuestionTotal {
	index := map[string]int{}
	var totals []QuestionTotal
	for _, res := range r.Results {
		i, ok := index[res.Question]
		if !ok {
			i = len(totals)
			index[res.Question] = i
			totals = append(totals, QuestionTotal{Question: res.Question})
		}
		totals[i].Awarded += res.PointsAwarded
		totals[i].Possible += res.PointsPossible
	}
	return totals
}

// QuestionTotal is the per-question score rollup.
type QuestionTotal struct {
	Question string
	Awarded  int
	Possible int
}

// Reporter consumes step results as they are produced and the summary at
// run end.
type Reporter interface {
	Step(result StepResult)
	Summary(report RunReport)
}

// Multi fans results out to several reporters.
func Multi(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

type multiReporter []Reporter

func (m multiReporter) Step(result StepResult) {
	for _, r := range m {
		r.Step(result)
	}
}

func (m multiReporter) Summary(report RunReport) {
	for _, r := range m {
		r.Summary(report)
	}
}
