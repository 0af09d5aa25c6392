package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")

	// ErrInvalidTransition is a conflict: errors.Is(err, ErrConflict) holds for it too.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)
)
