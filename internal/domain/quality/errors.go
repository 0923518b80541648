package quality

import (
	"errors"
)

// Sentinel kinds for quality calculation errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
