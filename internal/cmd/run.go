package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/config"
	"github.com/felixgeelhaar/regrade/internal/envreset"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/executor"
	"github.com/felixgeelhaar/regrade/internal/log"
	"github.com/felixgeelhaar/regrade/internal/proc"
	"github.com/felixgeelhaar/regrade/internal/relay"
	"github.com/felixgeelhaar/regrade/internal/report"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a grading suite against a submission",
	Long: `Resets the result workspace, loads the suite, and executes every step
in order. The grade sheet lands under the result root; the exit code
reflects tool health, not the submission's score.`,
	RunE: runGrade,
}

var (
	runConfigPath string
	runSuitePath  string
	runSheetPath  string
)

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "regrade.yaml", "run configuration file")
	runCmd.Flags().StringVarP(&runSuitePath, "suite", "s", "suite.yaml", "grading suite file")
	runCmd.Flags().StringVar(&runSheetPath, "sheet", "", "grade sheet CSV path (default <result_root>/grades.csv)")

	rootCmd.AddCommand(runCmd)
}

func runGrade(cmd *cobra.Command, args []string) error {
	logger := log.DefaultLogger()

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	gradingSuite, err := suite.Load(runSuitePath)
	if err != nil {
		return err
	}

	runID, err := envreset.Run(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("run starting", "run_id", runID, "steps", len(gradingSuite.Steps), "protocol", gradingSuite.Args.Protocol)

	store := capture.NewStore()
	manager := proc.NewManager(proc.Options{
		ClientPath: cfg.ClientPath,
		ServerPath: cfg.ServerPath,
		Store:      store,
		Logger:     logger,
	})

	var middleware relay.Middleware
	if cfg.RelayPort > 0 {
		r := relay.New(cfg.RelayAddr(), cfg.ServerAddr(), store, logger)
		useHTTP := gradingSuite.Args.Protocol == suite.ProtocolHTTP
		if err := r.Start(cmd.Context(), useHTTP); err != nil {
			return err
		}
		middleware = r
	}

	sheetPath := runSheetPath
	if sheetPath == "" {
		sheetPath = filepath.Join(cfg.ResultRoot, "grades.csv")
	}
	sheet := report.NewCSVWriter(sheetPath)
	reporter := report.Multi(
		report.NewConsoleReporter(os.Stdout),
		report.NewLogReporter(logger),
		sheet,
	)

	exec := executor.New(executor.Options{
		Proc:     manager,
		Store:    store,
		Relay:    middleware,
		Config:   cfg,
		Args:     gradingSuite.Args,
		Reporter: reporter,
		Logger:   logger,
		RunID:    runID,
	})

	rep := exec.ExecuteSuite(cmd.Context(), gradingSuite.Steps)

	if err := sheet.Err(); err != nil {
		return errors.Wrap(errors.CodeFileWriteFailed, "failed to write grade sheet", err)
	}
	logger.Info("run finished",
		"run_id", runID,
		"awarded", rep.PointsAwarded,
		"possible", rep.PointsPossible,
		"duration", rep.Duration,
		"sheet", sheetPath,
	)

	// A low score is a grading outcome, not a tool failure. Cancellation
	// still surfaces so the caller sees the interrupted exit code.
	if cmd.Context().Err() != nil {
		return errors.Wrap(errors.CodeCancelled, "run interrupted", cmd.Context().Err())
	}
	return nil
}
