// Package compare implements the grading comparison engine: pure functions
// deciding equality of an expected artifact against an actual one under the
// suite's equivalence policies.
//
// Every function checks the missing-expected policy first: an absent, empty,
// or nonexistent expected operand yields an Ignored pass before any
// normalization happens.
package compare

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// TextOptions tunes CompareText. The zero value is NOT the default;
// use DefaultTextOptions.
type TextOptions struct {
	CaseInsensitive bool
}

// DefaultTextOptions compares case-insensitively, matching how student
// output is graded.
func DefaultTextOptions() TextOptions {
	return TextOptions{CaseInsensitive: true}
}

// CompareText compares two texts after stripping all newline characters and
// trimming surrounding whitespace. Case-insensitive by default.
func CompareText(expected, actual string, opts TextOptions) Verdict {
	if isMissingText(expected) {
		return ignored()
	}

	normExpected := normalizeText(expected, opts.CaseInsensitive)
	normActual := normalizeText(actual, opts.CaseInsensitive)

	if normExpected == normActual {
		return pass("text matches")
	}
	return mismatch(errors.CodeTextMismatch,
		fmt.Sprintf("text mismatch: expected %d chars, got %d", len(normExpected), len(normActual)),
		normExpected, normActual)
}

// normalizeText removes every newline character and trims surrounding
// whitespace, so "a\nb\n" and "ab" compare equal.
func normalizeText(s string, caseInsensitive bool) string {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	s = strings.TrimSpace(s)
	if caseInsensitive {
		s = strings.ToLower(s)
	}
	return s
}

// isMissingText reports whether an expected operand triggers the
// missing-expected policy: nothing but whitespace counts as missing.
func isMissingText(s string) bool {
	return strings.TrimSpace(s) == ""
}
