package compare

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// CompareJSON compares two JSON documents structurally. With ignoreOrder,
// object key order and array element order are both insignificant (arrays
// compare as multisets). Type distinctions are preserved: the number 1 and
// the string "1" never match.
func CompareJSON(expected, actual string, ignoreOrder bool) Verdict {
	if isMissingText(expected) {
		return ignored()
	}

	var expectedDoc, actualDoc any
	if err := json.Unmarshal([]byte(expected), &expectedDoc); err != nil {
		return mismatch(errors.CodeJSONMismatch,
			fmt.Sprintf("expected operand is not valid JSON: %v", err), expected, actual)
	}
	if err := json.Unmarshal([]byte(actual), &actualDoc); err != nil {
		return mismatch(errors.CodeJSONMismatch,
			fmt.Sprintf("actual operand is not valid JSON: %v", err), expected, actual)
	}

	if jsonEqual(expectedDoc, actualDoc, ignoreOrder) {
		return pass("JSON matches")
	}
	return mismatch(errors.CodeJSONMismatch, "JSON documents differ", canonicalJSON(expectedDoc), canonicalJSON(actualDoc))
}

// jsonEqual walks both documents. Objects always compare key-by-key; arrays
// compare element-wise, or as multisets with greedy matching when
// ignoreOrder is set.
func jsonEqual(a, b any, ignoreOrder bool) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, ok := bv[k]
			if !ok || !jsonEqual(v, bval, ignoreOrder) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		if !ignoreOrder {
			for i := range av {
				if !jsonEqual(av[i], bv[i], ignoreOrder) {
					return false
				}
			}
			return true
		}
		used := make([]bool, len(bv))
		for _, elem := range av {
			found := false
			for i, candidate := range bv {
				if used[i] {
					continue
				}
				if jsonEqual(elem, candidate, ignoreOrder) {
					used[i] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		// Scalars: type-sensitive equality. json.Unmarshal yields
		// float64, string, bool, or nil here.
		return a == b
	}
}

// canonicalJSON renders a parsed document back to compact JSON for
// diagnostics. Marshal cannot fail on values produced by Unmarshal.
func canonicalJSON(doc any) string {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	return string(data)
}
