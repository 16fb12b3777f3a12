package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation lock not found")

	ErrHeldByAnother = errors.New("reservation lock is held by another session")

	ErrInvalidKey = errors.New("invalid reservation lock key")
)
