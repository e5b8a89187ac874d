package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
)

var (
	ErrEmptyMutation     = errors.New("basket mutation has no items")
	ErrInvalidTransition = errors.New("invalid add workflow transition")
)

// TransportFailure is a checkout API failure that was shown to the user.
type TransportFailure struct {
	Op      string
	Entries []checkoutapi.ErrorEntry
	Err     error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportFailure) Unwrap() error { return e.Err }

// RecoverableParamError marks a first add attempt rejected for missing
// order parameters.
type RecoverableParamError struct {
	Err *checkoutapi.StructuredError
}

func (e *RecoverableParamError) Error() string {
	return "order parameters required: " + e.Err.Error()
}

func (e *RecoverableParamError) Unwrap() error { return e.Err }

// classify decides between the order-parameter branch and the generic
// failure branch. Only the first stack entry is inspected.
func classify(op string, err error, isRetryWithParams bool) error {
	if se, ok := checkoutapi.AsStructured(err); ok && !isRetryWithParams {
		if code, ok := se.FirstCode(); ok && code == checkoutapi.CodeMissingOrderParams {
			return &RecoverableParamError{Err: se}
		}
	}
	return &TransportFailure{Op: op, Entries: checkoutapi.Entries(err), Err: err}
}
