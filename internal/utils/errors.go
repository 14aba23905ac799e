package utils

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// ValidationError represents an error occurring during data validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
//
// Parameters:
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
//
// Parameters:
//   - format: The format string.
//   - args: Arguments for the format string.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether err, or any error it wraps, is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NormalizeCurrencyCode upper-cases and validates an ISO 4217 currency code.
//
// Parameters:
//   - code: The raw currency code, e.g. "eur".
//
// Returns:
//   - The normalized code, e.g. "EUR".
//   - A ValidationError if the code is not three letters or not a recognized ISO code.
func NormalizeCurrencyCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) != 3 {
		return "", NewValidationErrorf("invalid currency code %q: expected 3 letters", code)
	}
	for _, r := range normalized {
		if r < 'A' || r > 'Z' {
			return "", NewValidationErrorf("invalid currency code %q: expected 3 letters", code)
		}
	}
	if _, err := currency.ParseISO(normalized); err != nil {
		return "", NewValidationErrorf("unrecognized currency code %q", code)
	}
	return normalized, nil
}

// NormalizeAirportCode upper-cases an airport code and rejects blanks.
func NormalizeAirportCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return "", NewValidationError("airport code is required")
	}
	return normalized, nil
}
