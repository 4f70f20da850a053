package apperr

import (
	"errors"
	"fmt"
)

// Error taxonomy for the exchange core. Services wrap these sentinels with %w
// so that the HTTP layer can map any error to a status code with errors.Is,
// without importing every domain package's error set.
var (
	// ErrValidation covers malformed ids, non-positive amounts, prices below
	// the floor, and references to missing or wrong-role entities.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers lookups of campaigns, users, calls, or routing that
	// do not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict is reserved for uniqueness violations beyond email.
	ErrConflict = errors.New("conflict")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
