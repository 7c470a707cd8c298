package compare

import "github.com/felixgeelhaar/regrade/internal/errors"

// IgnoredMessage is the message carried by verdicts produced under the
// missing-expected policy.
const IgnoredMessage = "Ignored: expected missing"

// Verdict is the structured outcome of one comparison. The executor
// classifies failures by Code; Message is for humans only.
type Verdict struct {
	// Equal reports whether the operands matched under the policy.
	Equal bool

	// Ignored marks a deliberate pass under the missing-expected policy.
	// Ignored verdicts carry zero weight: the step contributes to neither
	// side of the score.
	Ignored bool

	// Code identifies the failure mode when Equal is false.
	Code errors.Code

	// Message is a human-readable summary.
	Message string

	// Expected and Actual hold the normalized operands for diagnostics.
	Expected string
	Actual   string
}

func pass(message string) Verdict {
	return Verdict{Equal: true, Code: errors.CodeNone, Message: message}
}

// ignored is the universal missing-expected verdict: a deliberate pass
// with zero weight, not a skip.
func ignored() Verdict {
	return Verdict{Equal: true, Ignored: true, Code: errors.CodeNone, Message: IgnoredMessage}
}

func mismatch(code errors.Code, message, expected, actual string) Verdict {
	return Verdict{
		Equal:    false,
		Code:     code,
		Message:  message,
		Expected: expected,
		Actual:   actual,
	}
}
