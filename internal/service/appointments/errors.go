package appointments

import (
	"errors"

	"gobarber/backend/internal/lifecycle"
)

type ErrorKind string

const (
	KindValidation                ErrorKind = "Validation"
	KindInvalidProvider           ErrorKind = "InvalidProvider"
	KindPastDate                  ErrorKind = "PastDate"
	KindSlotUnavailable           ErrorKind = "SlotUnavailable"
	KindNotFound                  ErrorKind = "NotFound"
	KindForbidden                 ErrorKind = "Forbidden"
	KindCancellationWindowExpired ErrorKind = "CancellationWindowExpired"
	KindAlreadyCanceled           ErrorKind = "AlreadyCanceled"
	KindStoreFailure              ErrorKind = "StoreFailure"
)

// Error carries a failure that is not a scheduling rule, with the
// underlying cause still reachable through errors.Is and errors.As.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func storeFailure(err error) error {
	return &Error{Kind: KindStoreFailure, Err: err}
}

var sentinelKinds = []struct {
	err  error
	kind ErrorKind
}{
	{lifecycle.ErrInvalidProvider, KindInvalidProvider},
	{lifecycle.ErrPastDate, KindPastDate},
	{lifecycle.ErrSlotUnavailable, KindSlotUnavailable},
	{lifecycle.ErrNotFound, KindNotFound},
	{lifecycle.ErrForbidden, KindForbidden},
	{lifecycle.ErrCancellationWindowExpired, KindCancellationWindowExpired},
	{lifecycle.ErrAlreadyCanceled, KindAlreadyCanceled},
}

// KindOf classifies err. Anything unrecognized is a store failure; nil has
// no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}
