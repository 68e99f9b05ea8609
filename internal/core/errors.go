package core

import (
	"errors"
	"fmt"
)

// ErrValidation marks input rejected before any remote call is attempted.
var ErrValidation = errors.New("validation failed")

// ErrInvalidSchedule is returned by GenerateSchedule for out-of-range terms.
// It wraps ErrValidation so callers can branch on either.
var ErrInvalidSchedule = fmt.Errorf("invalid schedule terms: %w", ErrValidation)

// ErrStaleReference marks an operation targeting an ID that is no longer
// present locally. Treated as a caller bug: the operation is a no-op and the
// error is logged, never surfaced as a user-facing failure.
var ErrStaleReference = errors.New("stale reference")
