package deepcopy

import (
	"net/url"
	"reflect"
	"sync"
	"time"

	"github.com/coreos/go-semver/semver"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// A Policy classifies how instances of a type must be treated by the
// copier: aliased outright, duplicated byte-wise without recursion, or
// walked field-by-field (or element-by-element).
type Policy int8

const (
	// Mutable instances must be deep-copied recursively. This is the safe
	// default returned whenever classification is uncertain.
	Mutable Policy = iota
	// Immutable instances are aliased — the copy is the same reference (or,
	// for value types, the same bits) as the original.
	Immutable
	// ShallowCopyable instances may be duplicated by value without
	// recursing into their fields.
	ShallowCopyable
)

func (p Policy) String() string {
	switch p {
	case Immutable:
		return "Immutable"
	case ShallowCopyable:
		return "ShallowCopyable"
	default:
		return "Mutable"
	}
}

// ImmutableType is the user-supplied "immutable" marker (spec §4.1 rule 2).
// A type implementing it is always aliased, never copied, regardless of
// its field structure. The method is never called — its presence on the
// method set is the signal.
type ImmutableType interface {
	DeepCopyImmutable()
}

var immutableMarkerType = reflect.TypeOf((*ImmutableType)(nil)).Elem()

// policyCache memoizes ClassifyType results behind an RWMutex: reads take
// only the shared read lock, writes are rare
// (bounded by the number of distinct types the program copies) and
// duplicate computation under a race is tolerated, not prevented.
var (
	policyCache   = make(map[reflect.Type]Policy)
	policyCacheMu sync.RWMutex
)

// seedImmutable holds the types spec §4.1 rule 1 names as an extensible,
// construction-time seed set: well-known value types with immutable
// semantics that the engine aliases unconditionally.
var (
	seedImmutable   = make(map[reflect.Type]struct{})
	seedImmutableMu sync.RWMutex
)

func init() {
	registerSeedType(reflect.TypeOf(time.Time{}))     // absolute timestamp / timestamp-with-offset
	registerSeedType(reflect.TypeOf(time.Duration(0))) // duration
	registerSeedType(reflect.TypeOf(time.Location{}))
	registerSeedType(reflect.TypeOf(decimal.Decimal{})) // fixed-point decimal
	registerSeedType(reflect.TypeOf(uuid.UUID{}))       // globally-unique identifier
	registerSeedType(reflect.TypeOf(semver.Version{}))  // version tuple
	registerSeedType(reflect.TypeOf(url.URL{}))         // URI
}

func registerSeedType(t reflect.Type) {
	seedImmutableMu.Lock()
	seedImmutable[t] = struct{}{}
	seedImmutableMu.Unlock()
}

func isSeedImmutable(t reflect.Type) bool {
	seedImmutableMu.RLock()
	_, ok := seedImmutable[t]
	seedImmutableMu.RUnlock()
	return ok
}

// RegisterImmutable extends the seed set of immutable types at
// construction time (spec §6 Configuration). It is intended to be called
// during program initialization, before the types in question are first
// copied; calling it later is safe but invalidates any already-cached
// classification for T, which is cleared.
func RegisterImmutable[T any]() {
	t := reflect.TypeOf((*T)(nil)).Elem()
	registerSeedType(t)
	invalidatePolicy(t)
	invalidateCopier(t)
}

func invalidatePolicy(t reflect.Type) {
	policyCacheMu.Lock()
	delete(policyCache, t)
	policyCacheMu.Unlock()
}

// ClassifyType returns the copy policy for t, computing and memoizing it
// on first use. It is safe for concurrent use; concurrent first-classification
// of the same type may race harmlessly (both goroutines compute the same
// deterministic answer, one write wins).
func ClassifyType(t reflect.Type) Policy {
	if t == nil {
		return Immutable
	}

	policyCacheMu.RLock()
	if p, ok := policyCache[t]; ok {
		policyCacheMu.RUnlock()
		return p
	}
	policyCacheMu.RUnlock()

	p := classifyUncached(t)

	policyCacheMu.Lock()
	policyCache[t] = p
	policyCacheMu.Unlock()

	return p
}

func classifyUncached(t reflect.Type) Policy {
	// Rule 1: fixed seed set, extensible by configuration.
	if isSeedImmutable(t) {
		return Immutable
	}

	// Rule 2: user-supplied immutable marker.
	if t.Implements(immutableMarkerType) {
		return Immutable
	}
	if reflect.PointerTo(t).Implements(immutableMarkerType) && t.Kind() != reflect.Pointer {
		// A value type whose pointer receiver implements the marker is
		// still, itself, an immutable value — the method set difference
		// is a Go addressability artifact, not a semantic one.
		return Immutable
	}

	// Rule 3: primitive-kinded types — including named enumerations over a
	// primitive kind, pointer-like opaque kinds, and function references.
	// We refuse to copy them; they are values to alias.
	switch t.Kind() {
	case reflect.Invalid,
		reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.UnsafePointer, reflect.Func:
		return Immutable
	}

	// Rule 4: array types are Mutable unconditionally — the array copier
	// (§4.3) still block-copies immutable-element arrays internally, but
	// that is a routing decision inside the Mutable path, not a policy.
	if t.Kind() == reflect.Array {
		return Mutable
	}

	// Rule 5: composite-by-value (struct) types whose every copyable field
	// is itself Immutable are ShallowCopyable. Self-reference (a value
	// struct containing a field of its own type) cannot occur in Go — the
	// compiler rejects it as an invalid recursive type — so that tie-break
	// never triggers here.
	if t.Kind() == reflect.Struct {
		if allFieldsImmutable(t) {
			return ShallowCopyable
		}
		return Mutable
	}

	// Rule 6: reference-like types (pointers in Go) whose fields are all
	// read-only and Immutable would themselves be Immutable. Go has no
	// field-level read-only modifier — every field reachable through an
	// addressable pointer can be reassigned — so this rule's precondition
	// is never structurally satisfiable here; pointer types are classified
	// Mutable unless rule 1/2/3 already applied above. See DESIGN.md.
	//
	// Rule 7 (generic-template inheritance) needs no separate code: Go
	// monomorphizes generics before reflect ever observes the type, so a
	// generic instantiation is classified by rules 5/6 exactly as if it
	// were hand-written with its type arguments substituted in.
	return Mutable
}

// allFieldsImmutable reports whether every copyable field of struct type t
// classifies as Immutable. Fields are walked in declaration order — the
// lexicographic ordering required for traversal (§3) is applied by
// typeInfo, not here; classification order doesn't affect the result.
func allFieldsImmutable(t reflect.Type) bool {
	n := t.NumField()
	for i := 0; i < n; i++ {
		f := t.Field(i)
		if ClassifyType(f.Type) != Immutable {
			return false
		}
	}
	return true
}
