// Package service implements the validated task and conversation operations
// on top of the store. It owns the error taxonomy surfaced to callers: raw
// database errors are logged here and never propagate upward.
package service

import "github.com/pkg/errors"

var (
	// ErrValidation marks malformed or out-of-range input. Caller-fixable,
	// never worth retrying.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound covers both absence and ownership mismatch so callers
	// cannot probe for the existence of other users' rows.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a transient storage fault. Safe to retry.
	ErrUnavailable = errors.New("service temporarily unavailable")
)
