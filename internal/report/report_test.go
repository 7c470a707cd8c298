package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

func sampleReport() RunReport {
	var r RunReport
	r.RunID = "run-1"
	r.Duration = 1500 * time.Millisecond
	r.Add(StepResult{StepID: "OC-START-1", Question: "Q1", Action: "ServerStart", OK: true})
	r.Add(StepResult{StepID: "OC-CMP-3", Question: "Q1", Action: "CompareText", OK: true, PointsAwarded: 1, PointsPossible: 1})
	r.Add(StepResult{StepID: "OS-CMP-3", Question: "Q2", Action: "CompareJson", OK: false, PointsPossible: 1,
		Code: errors.CodeJSONMismatch, Message: "JSON documents differ"})
	r.Add(StepResult{StepID: "OS-CMP-4", Question: "Q2", Action: "CompareText", OK: true, Skipped: true, Message: "sheet disabled"})
	return r
}

func TestRunReportTotals(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 1, r.PointsAwarded)
	assert.Equal(t, 2, r.PointsPossible)

	totals := r.QuestionTotals()
	require.Len(t, totals, 2)
	assert.Equal(t, QuestionTotal{Question: "Q1", Awarded: 1, Possible: 1}, totals[0])
	assert.Equal(t, QuestionTotal{Question: "Q2", Awarded: 0, Possible: 1}, totals[1])
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleReporter(&buf)

	r := sampleReport()
	for _, res := range r.Results {
		c.Step(res)
	}
	c.Summary(r)

	out := buf.String()
	assert.Contains(t, out, "OC-CMP-3")
	assert.Contains(t, out, "CMP-002")
	assert.Contains(t, out, "1/2")
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "grades.csv")
	w := NewCSVWriter(path)

	r := sampleReport()
	w.Summary(r)
	require.NoError(t, w.Err())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5, "header plus one row per step")
	assert.Equal(t, "step_id", rows[0][0])
	assert.Equal(t, "OS-CMP-3", rows[3][0])
	assert.Equal(t, string(errors.CodeJSONMismatch), rows[3][7])
}

func TestMultiReporter(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi(NewConsoleReporter(&a), NewConsoleReporter(&b))

	m.Step(StepResult{StepID: "X-1", OK: true})
	assert.Contains(t, a.String(), "X-1")
	assert.Contains(t, b.String(), "X-1")
}
