package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrValidation            = errors.New("document validation failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
