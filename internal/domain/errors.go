package domain

import (
	"errors"
	"fmt"
)

// Outcome kinds reported to collaborators.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrRaceLost           = errors.New("concurrent write detected")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("session %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrDebtNotFound        = fmt.Errorf("debt %w", ErrNotFound)

	ErrSessionClosed     = fmt.Errorf("%w: session is closed", ErrInvalidArgument)
	ErrOwnerDemotion     = fmt.Errorf("%w: owner cannot be demoted", ErrInvalidArgument)
	ErrInvalidAmount     = fmt.Errorf("%w: invalid amount", ErrInvalidArgument)
	ErrInvalidName       = fmt.Errorf("%w: session name must be 3-50 characters", ErrInvalidArgument)
	ErrInvalidPersonName = fmt.Errorf("%w: person name must not be empty", ErrInvalidArgument)
	ErrInvalidCurrency   = fmt.Errorf("%w: unsupported currency", ErrInvalidArgument)
	ErrInvalidType       = fmt.Errorf("%w: unknown record type", ErrInvalidArgument)
	ErrUnknownField      = fmt.Errorf("%w: field cannot be updated", ErrInvalidArgument)

	ErrSnapshotMissing = errors.New("snapshot missing")
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

type OutcomeKind string

const (
	OutcomeOk                 OutcomeKind = "ok"
	OutcomeNotFound           OutcomeKind = "not_found"
	OutcomeInvalidArgument    OutcomeKind = "invalid_argument"
	OutcomeStorageUnavailable OutcomeKind = "storage_unavailable"
	OutcomeRaceLost           OutcomeKind = "race_lost"
)

// Outcome classifies err into one of the outcome kinds. Unclassified
// errors are treated as storage failures so callers never report success.
func Outcome(err error) OutcomeKind {
	switch {
	case err == nil:
		return OutcomeOk
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrInvalidArgument):
		return OutcomeInvalidArgument
	case errors.Is(err, ErrRaceLost):
		return OutcomeRaceLost
	default:
		return OutcomeStorageUnavailable
	}
}

// CorruptError reports a stored snapshot that could not be decoded. Revision
// is the token of the unreadable version so the caller can replace it.
type CorruptError struct {
	Revision string
	Err      error
}

func (e *CorruptError) Error() string {
	return "snapshot corrupt: " + e.Err.Error()
}

func (e *CorruptError) Unwrap() []error {
	return []error{ErrSnapshotCorrupt, e.Err}
}
