package deepcopy

import "reflect"

var reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()

// copyValue is the single recursive entry point used both for the first
// field of a user's graph and for every nested descent (spec §4.4). It is
// unexported — TryCopy and Copy are the public surface — because it
// operates on reflect.Value/Context directly rather than a generic T.
func copyValue(v reflect.Value, ctx *Context) (reflect.Value, error) {
	if !v.IsValid() {
		return v, nil
	}

	// Nil references of any reference-like kind copy to nil, with no
	// context lookup and no allocation.
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return v, nil
		}
	}

	// Reflection handles (reflect.Type values, however represented
	// underneath) are process-global and immutable by convention; alias
	// them rather than walking into runtime type metadata. This only
	// fires once v's kind is concrete — an interface-kind v is unwrapped
	// by copyInterfaceFunc first, so the runtime type is inspected there.
	if v.Kind() != reflect.Interface && v.Type().Implements(reflectTypeType) {
		return v, nil
	}

	// Cloneable is only consulted for struct-kind values here. Pointer
	// identity must be recorded before a custom Clone method runs (so two
	// pointers to the same Cloneable value share one copy, not two
	// independent ones) — copyPointerFunc does that itself, checking the
	// pointee's Cloneable only after recording the pointer's identity.
	if v.Kind() == reflect.Struct {
		if cloned, ok, err := tryCloneable(v); ok {
			return cloned, err
		}
	}

	if v.Kind() == reflect.Array {
		return copyArray(v, ctx)
	}

	return copierFor(v.Type())(v, ctx)
}
