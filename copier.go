package deepcopy

import (
	"reflect"
	"sync"
	"unsafe"
)

// copierFunc is a specialized copy routine for one concrete type, as
// spec §4.2 describes it: given a non-null original and the context for
// the current top-level call, it returns a fresh (or already-recorded)
// copy.
type copierFunc func(v reflect.Value, ctx *Context) (reflect.Value, error)

var (
	copierCache   = make(map[reflect.Type]copierFunc)
	copierCacheMu sync.RWMutex
)

// copierFor returns the memoized copier for t, building it on first
// request. Concurrent construction of the same entry is tolerated — both
// goroutines build functionally equivalent closures and only one becomes
// visible in the cache, matching spec §5's "duplicate computation is
// acceptable" allowance.
func copierFor(t reflect.Type) copierFunc {
	copierCacheMu.RLock()
	if fn, ok := copierCache[t]; ok {
		copierCacheMu.RUnlock()
		return fn
	}
	copierCacheMu.RUnlock()

	fn := buildCopier(t)

	copierCacheMu.Lock()
	copierCache[t] = fn
	copierCacheMu.Unlock()

	return fn
}

func invalidateCopier(t reflect.Type) {
	copierCacheMu.Lock()
	delete(copierCache, t)
	copierCacheMu.Unlock()
}

func copierCacheStats() int {
	copierCacheMu.RLock()
	defer copierCacheMu.RUnlock()
	return len(copierCache)
}

func resetCopierCache() {
	copierCacheMu.Lock()
	clear(copierCache)
	copierCacheMu.Unlock()
}

// buildCopier synthesizes the copier for a single concrete type, following
// spec §4.2's construction algorithm.
func buildCopier(t reflect.Type) copierFunc {
	policy := ClassifyType(t)

	if policy == Immutable {
		return func(v reflect.Value, _ *Context) (reflect.Value, error) { return v, nil }
	}

	if policy == ShallowCopyable {
		// A struct with no reachable mutable state: Go's ordinary value
		// assignment already performs the byte-wise duplication, so
		// returning v unchanged is correct wherever the caller assigns it
		// with Set — no separate allocation is needed. The field plan is
		// still memoized here so CacheStats counts every struct type copied.
		getStructTypeInfo(t)
		return func(v reflect.Value, _ *Context) (reflect.Value, error) { return v, nil }
	}

	switch t.Kind() {
	case reflect.Pointer:
		return copyPointerFunc
	case reflect.Struct:
		return copyStructFunc
	case reflect.Slice:
		return copySliceFunc
	case reflect.Map:
		return copyMapFunc
	case reflect.Array:
		return copyArray
	case reflect.Interface:
		return copyInterfaceFunc
	case reflect.Chan:
		return func(v reflect.Value, _ *Context) (reflect.Value, error) { return reflect.Zero(v.Type()), nil }
	default:
		// reflect.Func, reflect.UnsafePointer and the scalar kinds are all
		// Immutable per policy rule 3 and never reach here; anything else
		// is a type the introspection layer cannot describe.
		return func(v reflect.Value, _ *Context) (reflect.Value, error) {
			return reflect.Value{}, &UnsupportedTypeError{Type: v.Type()}
		}
	}
}

// copyPointerFunc deep-copies a pointer, recursively copying the pointee
// and recording the mapping before recursing so self-cycles terminate.
func copyPointerFunc(v reflect.Value, ctx *Context) (reflect.Value, error) {
	if v.IsNil() {
		return v, nil
	}

	addr := v.Pointer()
	if cached, ok := ctx.lookup(addr); ok {
		return cached, nil
	}

	elemType := v.Type().Elem()
	newPtr := reflect.New(elemType)
	ctx.record(addr, newPtr)

	// Try the custom Cloneable hook on the pointee before falling back to
	// reflection, mirroring the order the dispatcher uses at the top level.
	if cloned, ok, err := tryCloneable(v.Elem()); ok {
		if err != nil {
			return reflect.Value{}, err
		}
		newPtr.Elem().Set(cloned)
		return newPtr, nil
	}

	clonedElem, err := copyValue(v.Elem(), ctx)
	if err != nil {
		return reflect.Value{}, err
	}
	if clonedElem.IsValid() {
		newPtr.Elem().Set(clonedElem)
	}
	return newPtr, nil
}

// copyStructFunc deep-copies a struct using the cached field plan,
// writing through unexported fields via their memory offset (spec §4.2,
// §9: "Writing through a read-only field during reconstruction is
// inherent to deep copy"). Go has no constructor to invoke — a
// zero-initialized reflect.New(t).Elem() already is the "uninitialized
// instance" of last resort spec §3(e) describes, so construction cannot
// fail for ordinary struct types; ConstructionError exists for the rare
// case a custom Clone method panics.
func copyStructFunc(v reflect.Value, ctx *Context) (reflect.Value, error) {
	t := v.Type()
	src := addressable(v)
	dstPtr := reflect.New(t)
	dst := dstPtr.Elem()

	srcBase := unsafe.Pointer(src.UnsafeAddr())
	dstBase := unsafe.Pointer(dstPtr.Pointer())

	info := getStructTypeInfo(t)
	for _, plan := range info.plans {
		field := plan.field

		srcField := fieldAt(srcBase, field)
		if !plan.needsRecurse {
			dstField := fieldAt(dstBase, field)
			dstField.Set(srcField)
			continue
		}

		cloned, err := copyValue(srcField, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		if !cloned.IsValid() {
			continue
		}
		dstField := fieldAt(dstBase, field)
		dstField.Set(cloned)
	}

	return dst, nil
}

// addressable returns an addressable Value holding the same bits as v,
// copying into a fresh allocation first if v itself isn't addressable
// (the case whenever a struct arrives by value through an interface, as
// it does at the top of every call). The copy performed here is a plain
// reflect.Value.Set of the whole struct, which Go permits regardless of
// unexported fields — flagRO only attaches to values reached through
// named unexported-field access, never to a value taken as a whole.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr.Elem()
}

// fieldAt returns a settable, readable Value for field at byte offset
// field.Offset from base, bypassing the flagRO that ordinary
// reflect.Value.Field access on an unexported field would carry. This is
// the documented unsafe boundary spec §9 calls for.
func fieldAt(base unsafe.Pointer, field reflect.StructField) reflect.Value {
	return reflect.NewAt(field.Type, unsafe.Pointer(uintptr(base)+field.Offset)).Elem()
}

// copySliceFunc deep-copies a slice, tracking identity only for element
// kinds that can participate in sharing or cycles — primitive-element
// slices skip the map entirely, as in the teacher.
func copySliceFunc(v reflect.Value, ctx *Context) (reflect.Value, error) {
	if v.IsNil() {
		return v, nil
	}

	if v.Len() == 0 {
		// Observationally immutable (spec §4.3 edge case): safe to return
		// as-is, though callers must not rely on non-aliasing for it.
		return v, nil
	}

	elemPolicy := ClassifyType(v.Type().Elem())
	needsTracking := elemPolicy == Mutable

	if needsTracking {
		addr := v.Pointer()
		if cached, ok := ctx.lookup(addr); ok {
			if cached.Len() == v.Len() && cached.Cap() == v.Cap() {
				return cached, nil
			}
		}
	}

	length, capacity := v.Len(), v.Cap()
	dst := reflect.MakeSlice(v.Type(), length, capacity)

	if needsTracking {
		ctx.record(v.Pointer(), dst)
	}

	if elemPolicy != Mutable {
		reflect.Copy(dst, v)
		return dst, nil
	}

	for i := 0; i < length; i++ {
		elem, err := copyValue(v.Index(i), ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		if elem.IsValid() {
			dst.Index(i).Set(elem)
		}
	}
	return dst, nil
}

// copyMapFunc deep-copies a map, recording identity before populating it
// so a value cycling back through the map (e.g. a map of nodes pointing
// at each other) resolves to the in-progress copy.
func copyMapFunc(v reflect.Value, ctx *Context) (reflect.Value, error) {
	if v.IsNil() {
		return v, nil
	}

	addr := v.Pointer()
	if cached, ok := ctx.lookup(addr); ok {
		return cached, nil
	}

	dst := reflect.MakeMapWithSize(v.Type(), v.Len())
	ctx.record(addr, dst)

	elemType := v.Type().Elem()
	iter := v.MapRange()
	for iter.Next() {
		key, err := copyValue(iter.Key(), ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		val, err := copyValue(iter.Value(), ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		if !key.IsValid() || !val.IsValid() {
			continue
		}
		if val.Type() != elemType {
			switch {
			case val.Type().ConvertibleTo(elemType):
				val = val.Convert(elemType)
			case val.Type().AssignableTo(elemType):
			default:
				continue
			}
		}
		dst.SetMapIndex(key, val)
	}
	return dst, nil
}

// copyInterfaceFunc deep-copies the concrete value held in an interface,
// preserving the concrete runtime type (spec §4.4: dispatch is always on
// runtime type, never on the static interface type).
func copyInterfaceFunc(v reflect.Value, ctx *Context) (reflect.Value, error) {
	if v.IsNil() {
		return v, nil
	}

	elem, err := copyValue(v.Elem(), ctx)
	if err != nil {
		return reflect.Value{}, err
	}
	if !elem.IsValid() {
		return v, nil
	}

	holder := reflect.New(v.Type()).Elem()
	holder.Set(elem)
	return holder, nil
}
