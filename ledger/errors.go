package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a ledger row with the same
	// idempotency key already exists. This is expected behavior for replays
	// of the same logical event and is safe to treat as "already done".
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrTransactionFailed is returned when a ledger row cannot be persisted.
	ErrTransactionFailed = errors.New("transaction failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateAwardError reports which idempotency key collided, so callers can
// tell the user which event was already scored.
type DuplicateAwardError struct {
	UserID         string
	IdempotencyKey string
}

func (e *DuplicateAwardError) Error() string {
	return fmt.Sprintf("award already recorded for key %q", e.IdempotencyKey)
}

func (e *DuplicateAwardError) Unwrap() error {
	return ErrDuplicateIdempotencyKey
}

// IsDuplicate reports whether err means the ledger row already exists.
// Duplicates are benign: the award fired on an earlier attempt.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}
