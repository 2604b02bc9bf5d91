package recovery

import (
	"errors"
	"fmt"

	"github.com/cleanslate/tracker/ledger"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrPrizeNotFound is returned when a prize is absent or not owned
	// by the calling user.
	ErrPrizeNotFound = errors.New("prize not found")

	// ErrAlreadyPurchased is returned when buying an inactive prize.
	// Restock the prize to buy it again. Benign, no write performed.
	ErrAlreadyPurchased = errors.New("prize already purchased; restock to buy again")

	// ErrInsufficientPoints is returned when the derived balance cannot
	// cover a purchase. No write performed.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrNotToday is returned when editing journal/mood for any day other
	// than the current calendar date.
	ErrNotToday = errors.New("journal is editable only for the current day")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientPointsError reports how far short the balance falls.
type InsufficientPointsError struct {
	UserID    string
	Balance   int
	Cost      int
	Shortfall int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: balance %d, cost %d, short %d",
		e.Balance, e.Cost, e.Shortfall)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

// ValidationError rejects malformed input before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPrizeNotFound)
}

// IsConflict reports "already done" outcomes that are safe to surface as
// benign: the state the caller wanted already holds.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyPurchased) ||
		errors.Is(err, ledger.ErrDuplicateIdempotencyKey)
}

// IsValidation reports malformed input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrNotToday)
}

// IsClientError reports whether the caller, not the system, must change
// something for the operation to succeed.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsValidation(err) ||
		errors.Is(err, ErrInsufficientPoints)
}
