package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch: a vector's dimension differs from the
	// index's established dimension. Fatal to that call.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrInvalidInput covers caller mistakes (length mismatches,
	// k < 1, empty question).
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalCall: transport, timeout or cancellation failure of
	// an external judgment call. Aborts the current run.
	ErrExternalCall = errors.New("external call failed")
	// ErrTemporary marks failures worth retrying.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
