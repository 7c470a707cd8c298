package compare

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// ByteSizeAbsoluteTolerance is the accepted absolute deviation in bytes.
const ByteSizeAbsoluteTolerance = 10

// ByteSizeRelativeTolerance is the accepted relative deviation against the
// expected size.
const ByteSizeRelativeTolerance = 0.05

// CompareHTTPMethod compares two HTTP methods case-insensitively.
func CompareHTTPMethod(expected, actual string) Verdict {
	if isMissingText(expected) {
		return ignored()
	}
	if strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(actual)) {
		return pass("HTTP method matches")
	}
	return mismatch(errors.CodeMethodMismatch,
		fmt.Sprintf("HTTP method mismatch: expected %s, got %s", expected, actual),
		strings.TrimSpace(expected), strings.TrimSpace(actual))
}

// CompareStatusCode normalizes both statuses to a canonical label before
// comparing, so "200", "OK" and "200 OK" all agree.
func CompareStatusCode(expected, actual string) Verdict {
	if isMissingText(expected) {
		return ignored()
	}
	normExpected := NormalizeStatusCode(expected)
	normActual := NormalizeStatusCode(actual)
	if normExpected == normActual {
		return pass("status code matches")
	}
	return mismatch(errors.CodeStatusMismatch,
		fmt.Sprintf("status code mismatch: expected %s, got %s", normExpected, normActual),
		normExpected, normActual)
}

// statusLabels maps numeric codes to the canonical label set.
var statusLabels = map[int]string{
	200: "OK",
	201: "Created",
	204: "NoContent",
	400: "BadRequest",
	401: "Unauthorized",
	403: "Forbidden",
	404: "NotFound",
	500: "InternalServerError",
}

// statusTexts pairs each canonical label with the upper-cased phrase
// matched by substring against textual statuses. Order matters: longer
// phrases are listed before their prefixes.
var statusTexts = []struct {
	phrase string
	label  string
}{
	{"NO CONTENT", "NoContent"},
	{"BAD REQUEST", "BadRequest"},
	{"UNAUTHORIZED", "Unauthorized"},
	{"FORBIDDEN", "Forbidden"},
	{"NOT FOUND", "NotFound"},
	{"INTERNAL SERVER ERROR", "InternalServerError"},
	{"CREATED", "Created"},
	{"OK", "OK"},
}

// NormalizeStatusCode maps a status given as a numeric code, bare text, or
// "NNN Text" onto its canonical label. Unrecognized input returns the
// trimmed original.
func NormalizeStatusCode(status string) string {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return trimmed
	}

	if code, err := strconv.Atoi(trimmed); err == nil {
		if label, ok := statusLabels[code]; ok {
			return label
		}
		return trimmed
	}

	upper := strings.ToUpper(trimmed)
	for _, entry := range statusTexts {
		if strings.Contains(upper, entry.phrase) {
			return entry.label
		}
	}
	return trimmed
}

// CompareByteSize accepts the actual size when it is exactly the expected
// size, within the absolute tolerance, or within the relative tolerance of
// the expected value, whichever test passes first.
func CompareByteSize(expected, actual int64) Verdict {
	if IsByteSizeWithinTolerance(expected, actual) {
		return pass("byte size within tolerance")
	}
	return mismatch(errors.CodeByteSizeMismatch,
		fmt.Sprintf("byte size mismatch: expected %d, got %d", expected, actual),
		strconv.FormatInt(expected, 10), strconv.FormatInt(actual, 10))
}

// IsByteSizeWithinTolerance implements the tolerance band. An expected size
// of 0 accepts any actual size up to the absolute tolerance.
func IsByteSizeWithinTolerance(expected, actual int64) bool {
	if expected == actual {
		return true
	}
	diff := expected - actual
	if diff < 0 {
		diff = -diff
	}
	if diff <= ByteSizeAbsoluteTolerance {
		return true
	}
	if expected == 0 {
		return false
	}
	return float64(diff)/float64(expected) <= ByteSizeRelativeTolerance
}
