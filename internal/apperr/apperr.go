package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks operations on a child or session that was never initialized.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input: out-of-range scores, missing ids, unknown enum values.
	ErrValidation = errors.New("invalid argument")
	// ErrUnauthorized marks requests without a valid clinician token.
	ErrUnauthorized = errors.New("unauthorized")
)

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
