// Package suite defines the step model a grading run executes and the
// configuration gates that decide which steps are scored.
package suite

import (
	"strconv"
	"strings"
	"time"
)

// Stage identifies the phase of a graded question a step belongs to.
// Steps run in stage order within a question: SETUP, INPUT, VERIFY, CLEANUP.
type Stage int

const (
	// StageUnknown means the step declared no stage and its ID carries no
	// recognizable ordinal.
	StageUnknown Stage = 0
	// StageSetup prepares processes and state for a question.
	StageSetup Stage = 1
	// StageInput feeds data to the submission.
	StageInput Stage = 2
	// StageVerify checks produced artifacts against expectations.
	StageVerify Stage = 3
	// StageCleanup tears processes and state down.
	StageCleanup Stage = 4
)

// String returns the canonical upper-case stage label.
func (s Stage) String() string {
	switch s {
	case StageSetup:
		return "SETUP"
	case StageInput:
		return "INPUT"
	case StageVerify:
		return "VERIFY"
	case StageCleanup:
		return "CLEANUP"
	default:
		return "UNKNOWN"
	}
}

// Ordinal returns the 1-based position of the stage in the run sequence.
func (s Stage) Ordinal() int {
	return int(s)
}

// ParseStage parses a stage label. Matching is case-insensitive.
func ParseStage(label string) (Stage, bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "SETUP":
		return StageSetup, true
	case "INPUT":
		return StageInput, true
	case "VERIFY":
		return StageVerify, true
	case "CLEANUP":
		return StageCleanup, true
	case "":
		return StageUnknown, true
	default:
		return StageUnknown, false
	}
}

// StageFromOrdinal maps a 1-based ordinal back to a stage.
func StageFromOrdinal(n int) Stage {
	if n >= 1 && n <= 4 {
		return Stage(n)
	}
	return StageUnknown
}

// Step is one scripted grading instruction. Steps are immutable once
// constructed; the loader owns them and the executor only reads.
type Step struct {
	// ID has the form <SheetPrefix>-<Kind>-<StageOrdinal>, e.g. "OC-CMP-2".
	ID string

	// Action selects what the executor does with this step.
	Action Action

	// Stage is optional; when unset it is derived from the ID ordinal.
	Stage Stage

	// Target is the expected-side path. Empty means no expectation,
	// which triggers the missing-expected policy on compare actions.
	Target string

	// Value is the actual-side path, an HTTP request spec, or a literal,
	// depending on the action.
	Value string

	// QuestionCode identifies the grading item the step belongs to.
	QuestionCode string
}

// EffectiveStage returns the declared stage, falling back to the numeric
// suffix of the step ID. Steps with neither are treated as VERIFY so that
// a malformed ID cannot silently drop scoring.
func (s Step) EffectiveStage() Stage {
	if s.Stage != StageUnknown {
		return s.Stage
	}
	if st := stageFromID(s.ID); st != StageUnknown {
		return st
	}
	return StageVerify
}

// SheetPrefix returns the portion of the ID before the first dash,
// upper-cased. Empty when the ID has no dash.
func (s Step) SheetPrefix() string {
	idx := strings.Index(s.ID, "-")
	if idx <= 0 {
		return ""
	}
	return strings.ToUpper(s.ID[:idx])
}

func stageFromID(id string) Stage {
	idx := strings.LastIndex(id, "-")
	if idx < 0 || idx == len(id)-1 {
		return StageUnknown
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return StageUnknown
	}
	return StageFromOrdinal(n)
}

// Protocol selects how the submission's client and server talk.
type Protocol string

const (
	ProtocolHTTP Protocol = "HTTP"
	ProtocolTCP  Protocol = "TCP"
)

// ExecuteSuiteArgs carries per-run parameters supplied by the caller.
type ExecuteSuiteArgs struct {
	Protocol     Protocol
	StageTimeout time.Duration
}
