package deepcopy

import (
	"reflect"
	"sort"
	"sync"
)

// fieldPlan is the precomputed treatment for one struct field: whether it
// must be recursed into via the dispatcher, or stored unchanged because its
// declared type already classifies as Immutable or ShallowCopyable.
type fieldPlan struct {
	index       int // original reflect.StructField index (fields are read and written by offset)
	field       reflect.StructField
	needsRecurse bool
}

// structTypeInfo caches, per struct type, the field traversal order and
// per-field treatment so repeated copies of the same type skip repeated
// reflection and policy lookups.
type structTypeInfo struct {
	plans []fieldPlan
}

var (
	structInfoCache   = make(map[reflect.Type]*structTypeInfo)
	structInfoCacheMu sync.RWMutex
)

// getStructTypeInfo returns the cached field plan for t, building and
// memoizing it on first access. Fields are walked in the deterministic
// order spec §3 requires — sorted by field name, lexicographic, ordinal —
// which only affects the order copying happens in, not which reflect
// index is used to read/write each field.
//
// Go has no universal root object type to exclude the way a class-based
// host does, and no separate "most-derived to root" declaration chain to
// walk: embedding already presents each embedded struct as an ordinary
// field of its own struct type, so the same per-level field plan, applied
// recursively, already reaches every promoted field exactly once.
func getStructTypeInfo(t reflect.Type) *structTypeInfo {
	structInfoCacheMu.RLock()
	if info, ok := structInfoCache[t]; ok {
		structInfoCacheMu.RUnlock()
		return info
	}
	structInfoCacheMu.RUnlock()

	structInfoCacheMu.Lock()
	defer structInfoCacheMu.Unlock()

	if info, ok := structInfoCache[t]; ok {
		return info
	}

	n := t.NumField()
	plans := make([]fieldPlan, n)
	for i := 0; i < n; i++ {
		field := t.Field(i)
		plans[i] = fieldPlan{
			index:        i,
			field:        field,
			needsRecurse: ClassifyType(field.Type) == Mutable,
		}
	}

	sort.Slice(plans, func(a, b int) bool {
		return plans[a].field.Name < plans[b].field.Name
	})

	info := &structTypeInfo{plans: plans}
	structInfoCache[t] = info
	return info
}

// structCacheStats mirrors the teacher's CacheStats: the number of struct
// types with a memoized field plan, and the total field count across them.
func structCacheStats() (entries, fields int) {
	structInfoCacheMu.RLock()
	defer structInfoCacheMu.RUnlock()

	entries = len(structInfoCache)
	for _, info := range structInfoCache {
		fields += len(info.plans)
	}
	return entries, fields
}

func resetStructCache() {
	structInfoCacheMu.Lock()
	clear(structInfoCache)
	structInfoCacheMu.Unlock()
}
