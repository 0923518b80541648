package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrNoData       = errors.New("no data for supplier")
	ErrInvalidLimit = errors.New("invalid window limit")
)

// IsMissingData reports whether err only means the record or its history is
// absent, as opposed to a real store failure.
func IsMissingData(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoData)
}
