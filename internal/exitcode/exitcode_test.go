package exitcode

import (
	"fmt"
	"testing"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, Success},
		{"suite load", errors.New(errors.CodeSuiteLoadFailed, "bad suite"), SuiteError},
		{"unsupported action", errors.New(errors.CodeUnsupportedAction, "bogus"), SuiteError},
		{"env reset", errors.New(errors.CodeEnvResetFailed, "cannot clear"), EnvError},
		{"missing executable", errors.New(errors.CodeExecutableMissing, "no server"), ProcessError},
		{"relay failure", errors.New(errors.CodeRelayFailed, "proxy died"), NetworkError},
		{"cancelled", errors.New(errors.CodeCancelled, "interrupted"), Interrupted},
		{"io failure", errors.New(errors.CodeFileMissing, "gone"), GeneralError},
		{"plain error", fmt.Errorf("something broke"), GeneralError},
		{"wrapped network", fmt.Errorf("run: %w", errors.New(errors.CodeHTTPRequestFailed, "refused")), NetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.want {
				t.Errorf("DetermineExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
