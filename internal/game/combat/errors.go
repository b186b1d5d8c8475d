package combat

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeValidation marks malformed input; no state was changed.
	CodeValidation Code = "VALIDATION"
	// CodeNotFound marks an unknown actor, item or attack instance.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidState marks an operation not allowed in the instance's state.
	CodeInvalidState Code = "INVALID_STATE"
	// CodeAmbiguousTarget marks an active effect that matches several items.
	CodeAmbiguousTarget Code = "AMBIGUOUS_TARGET"
	// CodeInternal marks broken upstream data or a storage failure.
	CodeInternal Code = "INTERNAL"
)

var (
	// ErrActorNotFound is returned by a Store for an unknown actor.
	ErrActorNotFound = errors.New("combat: actor not found")
	// ErrItemDepleted is returned by Store.ConsumeItem when the stock is empty.
	ErrItemDepleted = errors.New("combat: item depleted")
	// ErrInstanceNotFound is returned by an InstanceStore for an unknown attack.
	ErrInstanceNotFound = errors.New("combat: attack instance not found")
	// ErrStaleState is returned by InstanceStore.Advance when the stored
	// state no longer matches the expected one.
	ErrStaleState = errors.New("combat: attack instance state changed")
)

// Error is the engine's domain error with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func newError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) with(kv ...string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string, len(kv)/2)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Metadata[kv[i]] = kv[i+1]
	}
	return e
}

// CodeOf returns the Code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
