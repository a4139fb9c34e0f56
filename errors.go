package deepcopy

import (
	"fmt"
	"reflect"
)

// UnsupportedTypeError is returned when a value cannot be copied at all:
// a type the introspection layer cannot describe. Channels are not
// reported this way (they copy to a nil channel), and functions are
// aliased unchanged.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	if e.Type == nil {
		return "deepcopy: unsupported type (nil)"
	}
	return fmt.Sprintf("deepcopy: unsupported type %s", e.Type)
}

// ConstructionError is returned when producing a fresh instance of a type
// failed: a custom Clone method panicked (the panic is recovered), or its
// result could not be returned as the requested type.
type ConstructionError struct {
	Type reflect.Type
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("deepcopy: failed to construct %s: %v", e.Type, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// InvariantError reports a condition the engine assumes can never happen —
// e.g. the array dispatcher routed a value whose runtime kind is not an
// array. It is always a bug in this package, never caller error.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "deepcopy: invariant violated: " + e.Detail
}

func newInvariantError(detail string) error {
	return &InvariantError{Detail: detail}
}
