// Package envreset restores a clean slate before a grading run: stale
// capture and diff trees are removed, the result layout is recreated, and
// the submission's config file is restored from a pristine template.
package envreset

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/regrade/internal/capture"
	"github.com/felixgeelhaar/regrade/internal/config"
	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/log"
)

// channelRoots are the capture directories recreated on every reset.
var channelRoots = []capture.Channel{
	capture.ChannelClientOutput,
	capture.ChannelServerOutput,
	capture.ChannelServerRequest,
	capture.ChannelServerResponse,
}

// Run resets the environment and returns the fresh run ID. It executes
// strictly before the suite; the core assumes a clean slate afterwards.
func Run(cfg config.Config, logger *log.Logger) (string, error) {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	runID := uuid.NewString()

	for _, dir := range []string{
		filepath.Join(cfg.ResultRoot, "actual"),
		filepath.Join(cfg.ResultRoot, "diff"),
	} {
		if err := os.RemoveAll(dir); err != nil {
			return "", errors.Wrap(errors.CodeEnvResetFailed, "failed to clear "+dir, err)
		}
	}

	for _, channel := range channelRoots {
		dir := filepath.Join(cfg.ResultRoot, "actual", string(channel))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(errors.CodeEnvResetFailed, "failed to create "+dir, err)
		}
	}

	if cfg.ConfigTemplate != "" {
		if err := copyFile(cfg.ConfigTemplate, cfg.ConfigDest); err != nil {
			return "", err
		}
		logger.Debug("restored submission config", "template", cfg.ConfigTemplate, "dest", cfg.ConfigDest)
	}

	logger.Info("environment reset", "run_id", runID, "result_root", cfg.ResultRoot)
	return runID, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.CodeConfigRestoreFailed, "failed to open config template", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(errors.CodeConfigRestoreFailed, "failed to create config destination", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.CodeConfigRestoreFailed, "failed to create config destination", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrap(errors.CodeConfigRestoreFailed, "failed to copy config template", err)
	}
	return nil
}
