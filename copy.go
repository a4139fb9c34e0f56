package deepcopy

import (
	"fmt"
	"maps"
	"reflect"

	"go.uber.org/zap"
)

// Cloneable allows types to implement custom deep copy behavior. Types
// implementing this interface (by value or pointer receiver) have their
// Clone method called instead of the reflection-based copier at the top of
// a call, and for nested struct occurrences the engine walks: pointees,
// interface, map and slice contents, and struct fields whose type is
// Mutable. A Cloneable struct whose fields are all Immutable classifies
// ShallowCopyable, so where it is nested as a struct field, slice or array
// element it is copied by value and its Clone method is not called.
//
// The Clone method must return a fully independent deep copy of the
// receiver; the engine's own identity tracking does not apply inside a
// custom Clone method, so a type that participates in cycles through its
// own fields must break them itself.
type Cloneable interface {
	Clone() any
}

var cloneableType = reflect.TypeOf((*Cloneable)(nil)).Elem()

// tryCloneable checks whether v (by value or, if addressable, by pointer
// receiver) implements Cloneable, and if so invokes it. The second return
// value reports whether Cloneable applied at all; callers that get false
// should fall through to reflection-based copying.
func tryCloneable(v reflect.Value) (reflect.Value, bool, error) {
	if v.Kind() == reflect.Interface {
		// The static type here is the interface itself; the dispatcher
		// unwraps interfaces before this check is meaningful.
		return reflect.Value{}, false, nil
	}

	var cloneable Cloneable
	switch {
	case v.Type().Implements(cloneableType):
		cloneable, _ = v.Interface().(Cloneable)
	case v.CanAddr() && reflect.PointerTo(v.Type()).Implements(cloneableType):
		cloneable, _ = v.Addr().Interface().(Cloneable)
	default:
		return reflect.Value{}, false, nil
	}
	if cloneable == nil {
		return reflect.Value{}, false, nil
	}

	return callCloneable(cloneable, v.Type())
}

// callCloneable invokes c.Clone() and adapts its result to t. A Clone
// implementation that panics is a bug in that implementation and
// propagates as a ConstructionError; one that simply returns a value of
// an incompatible type is treated as not applicable here, the same as if
// Cloneable had never matched, and the caller falls back to
// reflection-based copying.
func callCloneable(c Cloneable, t reflect.Type) (result reflect.Value, applied bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce := &ConstructionError{Type: t, Err: fmt.Errorf("panic in Clone: %v", r)}
			metricsConstructionError()
			logger().Warn("deepcopy: Clone panicked", zap.String("type", t.String()), zap.Any("panic", r))
			result, applied, err = reflect.Value{}, true, ce
		}
	}()

	out := c.Clone()
	rv := reflect.ValueOf(out)
	if !rv.IsValid() {
		return reflect.Zero(t), true, nil
	}
	if rv.Type() == t {
		return rv, true, nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), true, nil
	}
	if rv.Type().AssignableTo(t) {
		return rv, true, nil
	}
	logger().Warn("deepcopy: Clone returned incompatible type, falling back to reflection",
		zap.String("type", t.String()), zap.String("returned", rv.Type().String()))
	return reflect.Value{}, false, nil
}

// Immutable wraps a payload that must never be copied — the engine
// aliases the wrapped value unchanged, the way spec §6 describes. Use it
// to opt a single field or value out of recursive copying without
// defining a named type for the ImmutableType marker.
type Immutable[T any] struct {
	Value T
}

// DeepCopyImmutable implements ImmutableType; it is never called, its
// presence on the method set is the signal the policy classifier reads.
func (Immutable[T]) DeepCopyImmutable() {}

// cloneSliceExact copies a slice preserving both length and capacity, the
// same generic helper shape the teacher uses for its fast paths.
func cloneSliceExact[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	dst := make(S, len(s), cap(s))
	copy(dst, s)
	return dst
}

// Copy returns a deep copy of value, preserving shared substructure and
// cycles within it. It leases a Context from DefaultPool for the
// duration of the call and releases it before returning.
//
// Copy panics with the error TryCopy would return — a custom Clone method
// panicked, or the value's type cannot be copied at all — mirroring the
// ergonomics of functions like regexp.MustCompile. Callers that need to
// handle that case explicitly should use TryCopy instead.
func Copy[T any](value T) T {
	result, err := TryCopy(value)
	if err != nil {
		panic(err)
	}
	return result
}

// TryCopy is Copy's error-returning counterpart (spec §7: "no partial
// results are returned; a failure aborts the top-level copy").
func TryCopy[T any](value T) (T, error) {
	ctx := DefaultPool.Get()
	defer DefaultPool.Put(ctx)
	return CopyWithContext(value, ctx)
}

// CopyWithContext is the re-entrant overload from spec §6: the caller
// owns ctx and may reuse it across several calls to preserve referential
// continuity between them (two calls sharing one Context see the same
// original mapped to the same copy). ctx is not reset by this call; reset
// it explicitly (via a fresh Context, or Pool.Put followed by Pool.Get)
// to start a new identity scope.
func CopyWithContext[T any](value T, ctx *Context) T {
	result, err := TryCopyWithContext(value, ctx)
	if err != nil {
		panic(err)
	}
	return result
}

// TryCopyWithContext is CopyWithContext's error-returning counterpart.
func TryCopyWithContext[T any](value T, ctx *Context) (T, error) {
	if fast, ok := fastPathCopy(value); ok {
		return fast, nil
	}

	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return value, nil
	}

	if cloned, ok, err := tryCloneable(v); ok {
		if err != nil {
			var zero T
			return zero, err
		}
		out, ok := cloned.Interface().(T)
		if !ok {
			var zero T
			return zero, &ConstructionError{Type: v.Type(), Err: fmt.Errorf("Clone result not assignable to %T", zero)}
		}
		return out, nil
	}

	if v.Kind() == reflect.Pointer && v.IsNil() {
		return value, nil
	}

	cloned, err := copyValue(v, ctx)
	if err != nil {
		if _, ok := err.(*UnsupportedTypeError); ok {
			metricsUnsupportedType()
			logger().Warn("deepcopy: unsupported type", zap.Stringer("type", v.Type()))
		}
		var zero T
		return zero, err
	}
	if !cloned.IsValid() {
		return value, nil
	}
	return cloned.Interface().(T), nil
}

// fastPathCopy handles the hierarchy of zero-reflection fast paths the
// teacher uses: primitives and strings return as-is (Go already passed
// the caller its own copy of the bits), and a fixed set of common slice
// and map instantiations use generic/stdlib helpers instead of the
// reflection machinery.
func fastPathCopy[T any](src T) (T, bool) {
	switch any(src).(type) {
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128, string:
		return src, true
	}

	switch s := any(src).(type) {
	case []int:
		return any(cloneSliceExact(s)).(T), true
	case []int8:
		return any(cloneSliceExact(s)).(T), true
	case []int16:
		return any(cloneSliceExact(s)).(T), true
	case []int32:
		return any(cloneSliceExact(s)).(T), true
	case []int64:
		return any(cloneSliceExact(s)).(T), true
	case []uint:
		return any(cloneSliceExact(s)).(T), true
	case []uint16:
		return any(cloneSliceExact(s)).(T), true
	case []uint32:
		return any(cloneSliceExact(s)).(T), true
	case []uint64:
		return any(cloneSliceExact(s)).(T), true
	case []float32:
		return any(cloneSliceExact(s)).(T), true
	case []float64:
		return any(cloneSliceExact(s)).(T), true
	case []string:
		return any(cloneSliceExact(s)).(T), true
	case []bool:
		return any(cloneSliceExact(s)).(T), true
	case []byte:
		return any(cloneSliceExact(s)).(T), true
	}

	switch m := any(src).(type) {
	case map[string]int:
		if m == nil {
			return src, true
		}
		return any(maps.Clone(m)).(T), true
	case map[string]string:
		if m == nil {
			return src, true
		}
		return any(maps.Clone(m)).(T), true
	case map[string]float64:
		if m == nil {
			return src, true
		}
		return any(maps.Clone(m)).(T), true
	case map[string]bool:
		if m == nil {
			return src, true
		}
		return any(maps.Clone(m)).(T), true
	case map[int]int:
		if m == nil {
			return src, true
		}
		return any(maps.Clone(m)).(T), true
	case map[int]string:
		if m == nil {
			return src, true
		}
		return any(maps.Clone(m)).(T), true
	case map[int]bool:
		if m == nil {
			return src, true
		}
		return any(maps.Clone(m)).(T), true
	}

	return src, false
}

// CacheStats returns the number of struct types with a memoized field
// plan, the total field count across them, and the number of distinct
// types with a memoized per-type copier and policy classification.
func CacheStats() (structEntries, structFields, copierEntries, policyEntries int) {
	structEntries, structFields = structCacheStats()
	copierEntries = copierCacheStats()

	policyCacheMu.RLock()
	policyEntries = len(policyCache)
	policyCacheMu.RUnlock()

	return structEntries, structFields, copierEntries, policyEntries
}

// ResetCache clears every memoization cache the engine maintains: struct
// field plans, per-type copiers, and type classifications. Subsequent
// copies repopulate them on demand. Mainly useful in tests.
func ResetCache() {
	resetStructCache()
	resetCopierCache()

	policyCacheMu.Lock()
	clear(policyCache)
	policyCacheMu.Unlock()
}
