/*
errors.go - Centralized error types for the loyalty core

PURPOSE:
  All loyalty error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes; nothing here knows about HTTP.

ERROR CATEGORIES:
  1. NotFound    - client or reward id has no matching record
  2. Validation  - malformed input rejected before any store access
  3. Insufficient balance - redemption precondition failed

USAGE:
  if errors.Is(err, loyalty.ErrInsufficientBalance) {
      var detail *loyalty.InsufficientBalanceError
      errors.As(err, &detail)
      // detail.Available, detail.Required
  }

SEE ALSO:
  - service.go: Produces these errors
  - api: Maps them to HTTP statuses
*/
package loyalty

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrRewardNotFound is returned when a referenced reward doesn't exist.
	ErrRewardNotFound = errors.New("reward not found")

	// ErrInsufficientBalance is returned when a redemption requires more
	// points than the freshly recomputed balance holds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when an earn amount is not positive.
	// Non-positive input is rejected, never clamped.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidReward is returned when reward input fails validation
	// (short name, non-positive points_required).
	ErrInvalidReward = errors.New("invalid reward")

	// ErrInvalidClient is returned when client input fails validation.
	ErrInvalidClient = errors.New("invalid client")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports exactly how short a redemption fell.
type InsufficientBalanceError struct {
	ClientID  string
	RewardID  string
	Available int
	Required  int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: client %s has %d points, reward requires %d",
		e.ClientID, e.Available, e.Required)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// ValidationError names the field that failed validation so callers can
// render a specific message rather than a bare "bad request".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrRewardNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// or a failed business precondition, as opposed to a store failure.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidReward) ||
		errors.Is(err, ErrInvalidClient) ||
		errors.As(err, &ve)
}
