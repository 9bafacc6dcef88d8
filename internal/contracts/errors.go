package contracts

import (
	"errors"
	"fmt"
)

// ⭐ SSOT: error taxonomy shared by scorers, engine and adapters
var (
	// ErrInvalidArgument rejects bad dates, keywords or parameters before any work begins
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientHistory means too few observations for percentile or spike scoring
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrNoRelevantMarket means candidate search and disambiguation were both exhausted
	ErrNoRelevantMarket = errors.New("no relevant market")

	// ErrProviderUnavailable covers any external call that errors, times out or is throttled
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInsufficientUniverse aborts a backtest event when too few tickers have data
	ErrInsufficientUniverse = errors.New("insufficient universe")

	// ErrPersistenceConflict wraps unexpected storage-layer errors
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrNotFound is returned by repositories for a missing natural key
	ErrNotFound = errors.New("not found")
)

// ValidationError names the offending field and its constraint
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidArgument) match
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Unavailable wraps err as a provider failure, keeping the cause in the message
func Unavailable(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", provider, ErrProviderUnavailable, err)
}
