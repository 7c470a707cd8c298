package report

import (
	"time"

	"github.com/felixgeelhaar/regrade/internal/log"
)

const timeRounding = time.Millisecond

// LogReporter emits structured log records per step and at run end.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter logs through logger.
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &LogReporter{logger: logger}
}

// Step implements Reporter.
func (l *LogReporter) Step(result StepResult) {
	attrs := []any{
		"step", result.StepID,
		"question", result.Question,
		"action", result.Action,
		"awarded", result.PointsAwarded,
		"possible", result.PointsPossible,
		"duration_ms", result.Duration.Milliseconds(),
	}
	switch {
	case result.Skipped:
		l.logger.Debug("step skipped", attrs...)
	case result.OK:
		l.logger.Info("step passed", attrs...)
	default:
		attrs = append(attrs, "error_code", string(result.Code), "message", result.Message)
		l.logger.Warn("step failed", attrs...)
	}
}

// Summary implements Reporter.
func (l *LogReporter) Summary(report RunReport) {
	l.logger.Info("run finished",
		"run_id", report.RunID,
		"steps", len(report.Results),
		"awarded", report.PointsAwarded,
		"possible", report.PointsPossible,
		"duration_ms", report.Duration.Milliseconds(),
		"pump_failures", report.PumpFailures,
	)
}
