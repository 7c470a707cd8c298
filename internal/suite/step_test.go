package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStage(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want Stage
	}{
		{"declared stage wins", Step{ID: "OC-CMP-4", Stage: StageInput}, StageInput},
		{"derived from id ordinal", Step{ID: "OC-CMP-2"}, StageInput},
		{"verify ordinal", Step{ID: "OS-CMP-3"}, StageVerify},
		{"cleanup ordinal", Step{ID: "OS-KILL-4"}, StageCleanup},
		{"ordinal out of range", Step{ID: "OC-CMP-9"}, StageVerify},
		{"no ordinal falls back to verify", Step{ID: "OC-CMP"}, StageVerify},
		{"empty id falls back to verify", Step{}, StageVerify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.EffectiveStage())
		})
	}
}

func TestSheetPrefix(t *testing.T) {
	assert.Equal(t, "OC", Step{ID: "OC-CMP-2"}.SheetPrefix())
	assert.Equal(t, "OS", Step{ID: "os-cmp-1"}.SheetPrefix())
	assert.Equal(t, "", Step{ID: "NOPREFIX"}.SheetPrefix())
}

func TestParseAction(t *testing.T) {
	for _, tag := range []string{
		"ClientStart", "ServerStart", "ClientClose", "ServerClose",
		"KillAll", "RunClient", "RunServer", "Wait", "HttpRequest",
		"AssertText", "CaptureFile", "CompareFile", "CompareText",
		"CompareJson", "CompareCsv", "TcpRelay",
	} {
		a, err := ParseAction(tag)
		assert.NoError(t, err, tag)
		assert.True(t, a.Valid(), tag)
	}

	// Tags are case-sensitive.
	_, err := ParseAction("comparetext")
	assert.Error(t, err)
	_, err = ParseAction("Teleport")
	assert.Error(t, err)
}

func TestIsCompare(t *testing.T) {
	assert.True(t, ActionCompareText.IsCompare())
	assert.True(t, ActionCompareFile.IsCompare())
	assert.True(t, ActionAssertText.IsCompare())
	assert.False(t, ActionServerStart.IsCompare())
	assert.False(t, ActionWait.IsCompare())
	assert.False(t, ActionHTTPRequest.IsCompare())
}

func TestShouldGradeStep(t *testing.T) {
	cfg := DefaultGradingConfig()
	cfg.GradeOutputClientsSheet = false

	assert.False(t, cfg.ShouldGradeStep("OC-CMP-2"))
	assert.True(t, cfg.ShouldGradeStep("OS-CMP-2"))
	assert.True(t, cfg.ShouldGradeStep("XX-CMP-2"))
}

func TestIsEnabled(t *testing.T) {
	cfg := DefaultGradingConfig()
	cfg.ValidateServerOutput = false

	assert.True(t, cfg.IsEnabled(ValidationClientOutput))
	assert.False(t, cfg.IsEnabled(ValidationServerOutput))
	// Control steps are never kind-gated.
	assert.True(t, cfg.IsEnabled(ValidationNone))
}

func TestStepValidationKind(t *testing.T) {
	assert.Equal(t, ValidationClientOutput, Step{ID: "OC-CMP-3", Action: ActionCompareText}.ValidationKind())
	assert.Equal(t, ValidationServerOutput, Step{ID: "OS-CMP-3", Action: ActionCompareJSON}.ValidationKind())
	assert.Equal(t, ValidationDataRequest, Step{ID: "RQ-CMP-3", Action: ActionCompareText}.ValidationKind())
	assert.Equal(t, ValidationNone, Step{ID: "OC-START-1", Action: ActionServerStart}.ValidationKind())
}
