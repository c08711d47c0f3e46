package common

import (
	"errors"
	"fmt"
)

const (
	major = 0
	minor = 1
	patch = 0

	// Versions from which storage can be opened without migration.
	prevMajor = 0
	prevMinor = 1
	prevPatch = 0

	Version = major*1_000_000 + minor*1_000 + patch

	PrevVersion = prevMajor*1_000_000 + prevMinor*1_000 + prevPatch
)

var (
	// ErrVersionMismatch is returned by CheckVersion for storage written by
	// an incompatible older version.
	ErrVersionMismatch = errors.New("previous version mismatch")

	// ErrNewerVersion is returned by CheckVersion for storage written by a
	// newer version.
	ErrNewerVersion = errors.New("storage is of the newer version")
)

// CheckVersion checks that storage written by version from can be used by
// the current version.
func CheckVersion(from int) error {
	if from < PrevVersion {
		return fmt.Errorf("%w: expected >=%d, got %d", ErrVersionMismatch, PrevVersion, from)
	}
	if from > Version {
		return fmt.Errorf("%w: %d", ErrNewerVersion, from)
	}
	return nil
}
