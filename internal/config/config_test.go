package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regrade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_path: bin/server
client_path: bin/client
result_root: out
server_port: 9090
health_path: /health
grading:
  validate_client_output: true
  grade_output_clients_sheet: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bin/server", cfg.ServerPath)
	assert.Equal(t, "127.0.0.1:9090", cfg.ServerAddr())
	assert.Equal(t, "/health", cfg.HealthPath)
	assert.True(t, cfg.Grading.ValidateClientOutput)
	// Toggles absent from the YAML keep their defaults.
	assert.True(t, cfg.Grading.ValidateServerOutput)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("nope.yaml")
	require.Error(t, err)
	assert.Equal(t, errors.CodeFileReadFailed, errors.CodeOf(err))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.ResultRoot = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.ServerPort = 70000
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.ConfigTemplate = "template.json"
	assert.Error(t, bad.Validate(), "template without destination")
}
