package errors

import (
	"errors"
	"fmt"
)

// Common error types for the ACS emulator
var (
	// Input errors
	ErrMalformedInput = errors.New("malformed input")

	// Transaction errors
	ErrUnknownTransaction  = errors.New("unknown transaction")
	ErrTerminalTransaction = errors.New("transaction already terminal")

	// Crypto errors
	ErrInvalidKey             = errors.New("invalid key")
	ErrPadding                = errors.New("bad padding")
	ErrEnvelopeAuthentication = errors.New("envelope authentication failed")

	// Storage errors
	ErrStorage = errors.New("storage failure")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
