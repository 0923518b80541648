package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// newKind tags a sentinel with the failing operation.
func newKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// wrapKind tags a sentinel with the failing operation and its cause.
func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
