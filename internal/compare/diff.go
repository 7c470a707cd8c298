package compare

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// WriteDiffArtifact renders a structural diff of the verdict's normalized
// operands and writes it under dir, returning the artifact path. Called on
// text mismatches so graders can inspect what differed.
func WriteDiffArtifact(dir, stepID string, verdict Verdict) (string, error) {
	if verdict.Equal {
		return "", nil
	}

	diff := cmp.Diff(
		strings.Split(verdict.Expected, "\n"),
		strings.Split(verdict.Actual, "\n"),
	)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.CodeFileWriteFailed, "failed to create diff directory", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.diff", sanitizeID(stepID)))
	content := fmt.Sprintf("step: %s\n%s\n(-expected +actual)\n%s", stepID, verdict.Message, diff)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(errors.CodeFileWriteFailed, "failed to write diff artifact", err)
	}
	return path, nil
}

// sanitizeID keeps step IDs filesystem-safe.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
