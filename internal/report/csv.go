package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// CSVWriter persists the grade sheet at run end. It is a Reporter so it can
// sit in the same fan-out as the console and log reporters; per-step calls
// are no-ops since the sheet is written whole.
type CSVWriter struct {
	path string
	err  error
}

// NewCSVWriter writes the grade sheet to path on Summary.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Step implements Reporter.
func (w *CSVWriter) Step(StepResult) {}

// Summary implements Reporter.
func (w *CSVWriter) Summary(report RunReport) {
	w.err = w.write(report)
}

// Err returns the write failure, if Summary hit one.
func (w *CSVWriter) Err() error {
	return w.err
}

func (w *CSVWriter) write(report RunReport) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return errors.Wrap(errors.CodeFileWriteFailed, "failed to create grade sheet directory", err)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return errors.Wrap(errors.CodeFileWriteFailed, "failed to create grade sheet", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"step_id", "question", "action", "ok", "skipped", "awarded", "possible", "error_code", "duration_ms", "message"}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(errors.CodeFileWriteFailed, "failed to write grade sheet header", err)
	}
	for _, res := range report.Results {
		row := []string{
			res.StepID,
			res.Question,
			res.Action,
			strconv.FormatBool(res.OK),
			strconv.FormatBool(res.Skipped),
			strconv.Itoa(res.PointsAwarded),
			strconv.Itoa(res.PointsPossible),
			string(res.Code),
			strconv.FormatInt(res.Duration.Milliseconds(), 10),
			res.Message,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(errors.CodeFileWriteFailed, "failed to write grade sheet row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(errors.CodeFileWriteFailed, "failed to flush grade sheet", err)
	}
	return nil
}
