package probe

import "errors"

// Sentinel kinds for probe errors.
var (
	ErrEmptySuite   = errors.New("suite has no cases")
	ErrInvalidSuite = errors.New("invalid suite")
	ErrUnhealthy    = errors.New("service health check failed")
	ErrCasesFailed  = errors.New("probe cases failed")
)
