package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownStore = errors.New("unknown store backend")
)
