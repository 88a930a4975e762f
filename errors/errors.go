package errors

import "errors"

// Sentinel errors of the messaging core. Callers wrap them with
// fmt.Errorf("%w: ...") and test them with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPersistence      = errors.New("persistence error")
	ErrDelivery         = errors.New("delivery error")
	ErrConnectionClosed = errors.New("connection closed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
	ErrWorkerPanic      = errors.New("worker panic")
	ErrUnknownEvent     = errors.New("unknown event")
)
