package envreset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/regrade/internal/config"
	"github.com/felixgeelhaar/regrade/internal/errors"
)

func TestRunClearsAndRecreatesLayout(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "actual", "clients", "Q1", "stage_3.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	cfg := config.DefaultConfig()
	cfg.ResultRoot = root

	runID, err := Run(cfg, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	assert.NoFileExists(t, stale)
	for _, dir := range []string{"clients", "servers", "servers-req", "servers-resp"} {
		assert.DirExists(t, filepath.Join(root, "actual", dir))
	}
}

func TestRunRestoresConfigTemplate(t *testing.T) {
	root := t.TempDir()
	template := filepath.Join(root, "appsettings.pristine.json")
	require.NoError(t, os.WriteFile(template, []byte(`{"db":"clean"}`), 0o644))

	cfg := config.DefaultConfig()
	cfg.ResultRoot = filepath.Join(root, "results")
	cfg.ConfigTemplate = template
	cfg.ConfigDest = filepath.Join(root, "submission", "appsettings.json")

	_, err := Run(cfg, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.ConfigDest)
	require.NoError(t, err)
	assert.Equal(t, `{"db":"clean"}`, string(data))
}

func TestRunMissingTemplate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ResultRoot = t.TempDir()
	cfg.ConfigTemplate = "not/there.json"
	cfg.ConfigDest = filepath.Join(cfg.ResultRoot, "appsettings.json")

	_, err := Run(cfg, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigRestoreFailed, errors.CodeOf(err))
	assert.Equal(t, errors.CategoryEnv, errors.CategoryOf(err))
}

func TestRunIDsAreUnique(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ResultRoot = t.TempDir()

	a, err := Run(cfg, nil)
	require.NoError(t, err)
	b, err := Run(cfg, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
