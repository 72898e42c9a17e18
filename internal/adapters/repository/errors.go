package repository

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrNotFound     = errors.New("result not found")
	ErrInvalidLimit = errors.New("invalid result limit")
)

// IsNotFound reports whether err indicates a missing result, unwrapping
// as needed.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
