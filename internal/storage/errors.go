package storage

import "errors"

// ErrInvalidInput is returned when a record fails validation.
var ErrInvalidInput = errors.New("invalid input")
