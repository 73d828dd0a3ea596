package ir

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Digest is the lower-case hex SHA-256 of an artifact's raw bytes.
type Digest string

// NoDigest marks an artifact that is fetched without verification.
const NoDigest Digest = ""

const digestPrefix = "sha256:"

// ParseDigest normalizes a catalog checksum. An empty string yields NoDigest;
// anything else must be 64 hex characters, optionally prefixed with "sha256:".
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDigest, nil
	}
	s = strings.TrimPrefix(strings.ToLower(s), digestPrefix)
	if len(s) != 64 {
		return NoDigest, fmt.Errorf("invalid sha256 digest %q: want 64 hex characters, got %d", s, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return NoDigest, fmt.Errorf("invalid sha256 digest %q: %w", s, err)
	}
	return Digest(s), nil
}

// Verified reports whether downloads of the artifact are checked.
func (d Digest) Verified() bool {
	return d != NoDigest
}

// Matches compares against a computed hex digest.
func (d Digest) Matches(actual string) bool {
	return d.Verified() && string(d) == strings.ToLower(actual)
}

func (d Digest) String() string {
	if !d.Verified() {
		return "(unverified)"
	}
	return digestPrefix + string(d)
}

// RemoteFile is one downloadable artifact.
type RemoteFile struct {
	Src      string `json:"src" yaml:"src" pkl:"src"`
	SHA      Digest `json:"sha" yaml:"sha" pkl:"sha"`
	Filename string `json:"filename" yaml:"filename" pkl:"filename"`
}

// JavaRuntime is a runtime archive; Name is the directory it unpacks to.
type JavaRuntime struct {
	RemoteFile `yaml:",inline"`
	Name       string `json:"name" yaml:"name" pkl:"name"`
}
