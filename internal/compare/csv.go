package compare

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// CompareCSV compares two CSV documents. The header row is compared
// structurally (cell-for-cell, in order). With ignoreOrder the data rows
// compare as a multiset; row content must still match cell-for-cell.
func CompareCSV(expected, actual string, ignoreOrder bool) Verdict {
	if isMissingText(expected) {
		return ignored()
	}

	expectedRows, err := parseCSV(expected)
	if err != nil {
		return mismatch(errors.CodeCSVMismatch,
			fmt.Sprintf("expected operand is not valid CSV: %v", err), expected, actual)
	}
	actualRows, err := parseCSV(actual)
	if err != nil {
		return mismatch(errors.CodeCSVMismatch,
			fmt.Sprintf("actual operand is not valid CSV: %v", err), expected, actual)
	}

	if len(expectedRows) != len(actualRows) {
		return mismatch(errors.CodeCSVMismatch,
			fmt.Sprintf("row count mismatch: expected %d, got %d", len(expectedRows), len(actualRows)),
			renderRows(expectedRows), renderRows(actualRows))
	}
	if len(expectedRows) == 0 {
		return pass("CSV matches")
	}

	// Header row is positional regardless of ignoreOrder.
	if canonicalRow(expectedRows[0]) != canonicalRow(actualRows[0]) {
		return mismatch(errors.CodeCSVMismatch, "header row mismatch",
			renderRows(expectedRows[:1]), renderRows(actualRows[:1]))
	}

	expectedBody, actualBody := expectedRows[1:], actualRows[1:]
	if !ignoreOrder {
		for i := range expectedBody {
			if canonicalRow(expectedBody[i]) != canonicalRow(actualBody[i]) {
				return mismatch(errors.CodeCSVMismatch,
					fmt.Sprintf("row %d mismatch", i+1),
					renderRows(expectedBody), renderRows(actualBody))
			}
		}
		return pass("CSV matches")
	}

	counts := make(map[string]int, len(expectedBody))
	for _, row := range expectedBody {
		counts[canonicalRow(row)]++
	}
	for _, row := range actualBody {
		key := canonicalRow(row)
		if counts[key] == 0 {
			return mismatch(errors.CodeCSVMismatch,
				fmt.Sprintf("unexpected row: %s", strings.Join(row, ",")),
				renderRows(expectedBody), renderRows(actualBody))
		}
		counts[key]--
	}
	return pass("CSV matches")
}

func parseCSV(content string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// canonicalRow joins cells with an unprintable separator so rows compare as
// units even when cell values contain commas.
func canonicalRow(row []string) string {
	return strings.Join(row, "\x1f")
}

func renderRows(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
