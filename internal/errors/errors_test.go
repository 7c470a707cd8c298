package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeExecutableMissing, "server binary not found")

	if err.Code != CodeExecutableMissing {
		t.Errorf("expected code %s, got %s", CodeExecutableMissing, err.Code)
	}
	if err.Message != "server binary not found" {
		t.Errorf("unexpected message: %q", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(CodeFileReadFailed, "failed to read expected file", cause)

	if err.Code != CodeFileReadFailed {
		t.Errorf("expected code %s, got %s", CodeFileReadFailed, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *GradingError
		want []string
	}{
		{
			name: "simple error",
			err:  New(CodeUnsupportedAction, "unknown action"),
			want: []string{"PARSE-001", "unknown action"},
		},
		{
			name: "error with cause",
			err:  Wrap(CodeCopyFailed, "copy failed", fmt.Errorf("disk full")),
			want: []string{"IO-004", "copy failed", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, part := range tt.want {
				if !strings.Contains(msg, part) {
					t.Errorf("expected %q in %q", part, msg)
				}
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != CodeNone {
		t.Errorf("CodeOf(nil) = %s, want %s", got, CodeNone)
	}

	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Errorf("CodeOf(plain) = %s, want %s", got, CodeUnknown)
	}

	wrapped := fmt.Errorf("outer: %w", New(CodeTimeout, "step timed out"))
	if got := CodeOf(wrapped); got != CodeTimeout {
		t.Errorf("CodeOf(wrapped) = %s, want %s", got, CodeTimeout)
	}
}

// TestCategoryTotality guards the invariant that every code maps to a
// category, and that no code maps to more than one by construction.
func TestCategoryTotality(t *testing.T) {
	seen := map[Code]bool{}
	for _, code := range AllCodes() {
		if seen[code] {
			t.Errorf("code %s listed twice", code)
		}
		seen[code] = true

		cat := code.Category()
		if cat == "" {
			t.Errorf("code %s has no category", code)
		}
		if code != CodeUnknown && cat == CategoryUnknown {
			t.Errorf("code %s falls through to CategoryUnknown", code)
		}
	}

	if got := Code("made-up").Category(); got != CategoryUnknown {
		t.Errorf("foreign code category = %s, want %s", got, CategoryUnknown)
	}
}
