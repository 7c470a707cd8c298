package suite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

const sampleSuite = `
protocol: TCP
stage_timeout_seconds: 45
steps:
  - id: OC-START-1
    action: ServerStart
    stage: SETUP
    question: Q1
  - id: OC-CMP-2
    action: CompareText
    target: expected/q1/stage_2.txt
    value: "@capture"
    question: Q1
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleSuite))
	require.NoError(t, err)

	assert.Equal(t, ProtocolTCP, s.Args.Protocol)
	assert.Equal(t, 45*time.Second, s.Args.StageTimeout)
	require.Len(t, s.Steps, 2)

	assert.Equal(t, ActionServerStart, s.Steps[0].Action)
	assert.Equal(t, StageSetup, s.Steps[0].Stage)

	// Second step declared no stage; derived from the ID ordinal.
	assert.Equal(t, StageUnknown, s.Steps[1].Stage)
	assert.Equal(t, StageInput, s.Steps[1].EffectiveStage())
	assert.Equal(t, "Q1", s.Steps[1].QuestionCode)
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - id: A-W-1\n    action: Wait\n"))
	require.NoError(t, err)
	assert.Equal(t, ProtocolHTTP, s.Args.Protocol)
	assert.Equal(t, 30*time.Second, s.Args.StageTimeout)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code errors.Code
	}{
		{"not yaml", "{{nope", errors.CodeSuiteLoadFailed},
		{"no steps", "protocol: HTTP\n", errors.CodeSuiteInvalid},
		{"bad protocol", "protocol: SMTP\nsteps:\n  - id: A-W-1\n    action: Wait\n", errors.CodeSuiteInvalid},
		{"missing id", "steps:\n  - action: Wait\n", errors.CodeSuiteInvalid},
		{"unknown action", "steps:\n  - id: A-X-1\n    action: Teleport\n", errors.CodeUnsupportedAction},
		{"unknown stage", "steps:\n  - id: A-W-1\n    action: Wait\n    stage: LAUNCH\n", errors.CodeSuiteInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does/not/exist.yaml")
	require.Error(t, err)
	assert.Equal(t, errors.CodeSuiteLoadFailed, errors.CodeOf(err))
}
