package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/logging"
)

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, chunkSize)); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Present reports whether path already holds the artifact. A file with no
// expected digest counts as present; otherwise its content must match.
func Present(path string, digest ir.Digest) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory, expected a file", path)
	}
	if !digest.Verified() {
		return true, nil
	}

	sum, err := HashFile(path)
	if err != nil {
		return false, err
	}
	if !digest.Matches(sum) {
		logging.Warn("existing file does not match catalog digest, fetching again", "path", path, "expected", string(digest), "actual", sum)
		return false, nil
	}
	return true, nil
}
