package models

import "errors"

// Sentinel errors classifying every failure the core can produce.
// Call sites wrap these with serr for context; callers classify with
// errors.Is so the category survives any depth of wrapping.
var (
	// ErrValidation indicates a required field was empty after trimming.
	// Rejected before any storage write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an operation referenced a non-existent note id.
	// Delete is exempt — deleting a missing id is not an error.
	ErrNotFound = errors.New("note not found")

	// ErrStorageUnavailable indicates the underlying database could not be
	// opened or used. Fatal to all store operations until resolved.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrFormat indicates a malformed snapshot payload. Decoding aborts and
	// zero notes are applied.
	ErrFormat = errors.New("invalid snapshot format")
)

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a missing-note failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsStorageUnavailable reports whether err means the store cannot be used.
func IsStorageUnavailable(err error) bool { return errors.Is(err, ErrStorageUnavailable) }

// IsFormat reports whether err is a snapshot format failure.
func IsFormat(err error) bool { return errors.Is(err, ErrFormat) }
