package services

import "github.com/pkg/errors"

var (
	// ErrCompletionUnavailable covers network failures, timeouts, non-success
	// statuses and empty output from the completion backend.
	ErrCompletionUnavailable = errors.New("completion backend unavailable")

	// ErrDirectoryLookup is returned by doctor/hospital directories.
	ErrDirectoryLookup = errors.New("directory lookup failed")

	// ErrMalformedInput rejects a turn before any session is touched.
	ErrMalformedInput = errors.New("malformed input")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session was modified concurrently")
	ErrSessionCorrupt  = errors.New("stored session failed validation")
)
