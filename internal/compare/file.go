package compare

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// CompareFile compares two files byte-exactly: size first, then a blake3
// content hash. An expected path that is empty or does not exist on disk
// triggers the missing-expected policy.
func CompareFile(expectedPath, actualPath string) Verdict {
	if isMissingFile(expectedPath) {
		return ignored()
	}

	expectedInfo, err := os.Stat(expectedPath)
	if err != nil {
		// Raced away after the existence check; still missing-expected.
		return ignored()
	}

	actualInfo, err := os.Stat(actualPath)
	if err != nil {
		return mismatch(errors.CodeFileMissing,
			fmt.Sprintf("actual file not found: %s", actualPath), expectedPath, actualPath)
	}

	if expectedInfo.Size() != actualInfo.Size() {
		return mismatch(errors.CodeFileSizeMismatch,
			fmt.Sprintf("file size mismatch: expected %d bytes, got %d", expectedInfo.Size(), actualInfo.Size()),
			expectedPath, actualPath)
	}

	expectedSum, err := hashFile(expectedPath)
	if err != nil {
		return mismatch(errors.CodeFileReadFailed,
			fmt.Sprintf("failed to hash expected file: %v", err), expectedPath, actualPath)
	}
	actualSum, err := hashFile(actualPath)
	if err != nil {
		return mismatch(errors.CodeFileReadFailed,
			fmt.Sprintf("failed to hash actual file: %v", err), expectedPath, actualPath)
	}

	if expectedSum != actualSum {
		return mismatch(errors.CodeFileHashMismatch, "file content hash mismatch", expectedPath, actualPath)
	}
	return pass("files are identical")
}

// isMissingFile reports whether an expected path triggers the
// missing-expected policy.
func isMissingFile(path string) bool {
	if isMissingText(path) {
		return true
	}
	_, err := os.Stat(path)
	return err != nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
