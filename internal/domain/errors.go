package domain

import "errors"

var (
	// ErrMissingConfig is returned when a required credential or identifier
	// was not configured. Actions depending on it fail until it is provided.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrInvalidAmount is returned for non-positive trade or burn amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNoPrice is returned when no market source produced a usable price.
	ErrNoPrice = errors.New("no price available")
)
