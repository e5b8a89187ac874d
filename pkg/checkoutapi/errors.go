package checkoutapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid checkout api config")

	// ErrNetworkError is returned when the checkout API could not be reached
	ErrNetworkError = errors.New("network error")

	// ErrUnexpectedStatus is returned for non-2xx responses without an error stack
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrEmptyContainer is returned when a content response carries no template
	ErrEmptyContainer = errors.New("content container is empty")
)

// ErrorEntry is one element of the checkout API's error stack.
type ErrorEntry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StructuredError is a failed checkout API response of the form
// {"error": {"error_stack": [{"code": ..., "message": ...}]}}.
type StructuredError struct {
	StatusCode int          `json:"-"`
	Stack      []ErrorEntry `json:"error_stack"`
}

func (e *StructuredError) Error() string {
	if len(e.Stack) == 0 {
		return fmt.Sprintf("checkout api error: status=%d, empty error stack", e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Stack))
	for _, entry := range e.Stack {
		msgs = append(msgs, fmt.Sprintf("%d %s", entry.Code, entry.Message))
	}
	return fmt.Sprintf("checkout api error: status=%d, stack=[%s]", e.StatusCode, strings.Join(msgs, "; "))
}

// FirstCode returns the code of the first stack entry. ok is false when the
// stack is empty.
func (e *StructuredError) FirstCode() (code int, ok bool) {
	if e == nil || len(e.Stack) == 0 {
		return 0, false
	}
	return e.Stack[0].Code, true
}

type errorEnvelope struct {
	Error *StructuredError `json:"error"`
}

// AsStructured extracts a *StructuredError from err, if there is one.
func AsStructured(err error) (*StructuredError, bool) {
	var se *StructuredError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Entries returns the error entries to show for err. Errors without a stack
// become a single entry carrying the error text.
func Entries(err error) []ErrorEntry {
	if err == nil {
		return nil
	}
	if se, ok := AsStructured(err); ok && len(se.Stack) > 0 {
		out := make([]ErrorEntry, len(se.Stack))
		copy(out, se.Stack)
		return out
	}
	return []ErrorEntry{{Code: 0, Message: err.Error()}}
}
