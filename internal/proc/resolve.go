package proc

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/felixgeelhaar/regrade/internal/log"
)

// resolveCommand decides how to invoke the executable at path. A Windows
// framework binary (.exe) on a non-Windows host is run through the dotnet
// launcher, preferring the sibling .dll module when it exists; anything
// else is executed directly, best-effort.
func resolveCommand(path string, logger *log.Logger) (string, []string) {
	if runtime.GOOS == "windows" || !strings.EqualFold(filepath.Ext(path), ".exe") {
		return path, nil
	}

	dll := strings.TrimSuffix(path, filepath.Ext(path)) + ".dll"
	if _, err := os.Stat(dll); err == nil {
		logger.Debug("non-native executable, launching sibling module", "exe", path, "dll", dll)
		return "dotnet", []string{dll}
	}

	logger.Warn("non-native executable without sibling module, attempting direct launch", "exe", path)
	return path, nil
}

// workDir runs a process from its own directory so relative paths in the
// submission resolve the way students expect.
func workDir(path string) string {
	return filepath.Dir(path)
}
