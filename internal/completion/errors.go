package completion

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration     = errors.New("completion service is not configured")
	ErrInvalidModel      = errors.New("invalid model")
	ErrUpstream          = errors.New("completion provider request failed")
	ErrMalformedResponse = errors.New("completion response is not a JSON object")
)

// Error carries one of the sentinel kinds plus the underlying cause. Status is
// the provider's HTTP status when one was received.
type Error struct {
	Kind   error
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
