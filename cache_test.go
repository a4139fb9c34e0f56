package deepcopy

import (
	"runtime"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStats(t *testing.T) {
	ResetCache()
	t.Cleanup(ResetCache)

	entries, fields, _, _ := CacheStats()
	assert.Equal(t, 0, entries)
	assert.Equal(t, 0, fields)

	type TwoFields struct {
		A int
		B string
	}
	Copy(TwoFields{A: 1, B: "x"})

	entries, fields, _, _ = CacheStats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 2, fields)

	type ThreeFields struct {
		X float64
		Y float64
		Z float64
	}
	Copy(ThreeFields{X: 1, Y: 2, Z: 3})

	entries, fields, _, _ = CacheStats()
	assert.Equal(t, 2, entries)
	assert.Equal(t, 5, fields) // 2 + 3
}

func TestCacheStatsIdempotent(t *testing.T) {
	ResetCache()
	t.Cleanup(ResetCache)

	type S struct{ V int }
	for range 100 {
		Copy(S{V: 42})
	}

	entries, fields, _, _ := CacheStats()
	assert.Equal(t, 1, entries, "same type copied 100x produces one entry")
	assert.Equal(t, 1, fields)
}

func TestResetCache(t *testing.T) {
	ResetCache()
	t.Cleanup(ResetCache)

	type R struct{ V int }
	Copy(R{V: 1})

	entries, _, _, _ := CacheStats()
	require.Equal(t, 1, entries)

	ResetCache()
	entries, _, _, _ = CacheStats()
	assert.Equal(t, 0, entries)

	// Cache repopulates on next copy.
	Copy(R{V: 2})
	entries, _, _, _ = CacheStats()
	assert.Equal(t, 1, entries)
}

// 50 distinct struct types used to populate the cache for memory tests.
// Each type is defined at package level so reflect.Type values are stable.
type cacheT01 struct{ F1 int }
type cacheT02 struct{ F1, F2 int }
type cacheT03 struct{ F1, F2, F3 int }
type cacheT04 struct{ F1, F2, F3, F4 int }
type cacheT05 struct{ F1, F2, F3, F4, F5 int }
type cacheT06 struct{ F1, F2, F3, F4, F5, F6 int }
type cacheT07 struct{ F1, F2, F3, F4, F5, F6, F7 int }
type cacheT08 struct{ F1, F2, F3, F4, F5, F6, F7, F8 int }
type cacheT09 struct{ F1, F2, F3, F4, F5, F6, F7, F8, F9 int }
type cacheT10 struct{ F1, F2, F3, F4, F5, F6, F7, F8, F9, F10 int }
type cacheT11 struct{ F1 string }
type cacheT12 struct{ F1, F2 string }
type cacheT13 struct{ F1, F2, F3 string }
type cacheT14 struct{ F1, F2, F3, F4 string }
type cacheT15 struct{ F1, F2, F3, F4, F5 string }
type cacheT16 struct{ F1 float64 }
type cacheT17 struct{ F1, F2 float64 }
type cacheT18 struct{ F1, F2, F3 float64 }
type cacheT19 struct{ F1, F2, F3, F4 float64 }
type cacheT20 struct{ F1, F2, F3, F4, F5 float64 }
type cacheT21 struct{ F1 bool }
type cacheT22 struct{ F1, F2 bool }
type cacheT23 struct{ F1, F2, F3 bool }
type cacheT24 struct{ F1, F2, F3, F4 bool }
type cacheT25 struct{ F1, F2, F3, F4, F5 bool }
type cacheT26 struct {
	A int
	B string
}
type cacheT27 struct {
	A int
	B string
	C float64
}
type cacheT28 struct {
	A int
	B string
	C float64
	D bool
}
type cacheT29 struct {
	A int
	B string
	C float64
	D bool
	E int
}
type cacheT30 struct {
	A int
	B string
	C float64
	D bool
	E int
	F string
}
type cacheT31 struct{ X []int }
type cacheT32 struct{ X []string }
type cacheT33 struct{ X map[string]int }
type cacheT34 struct{ X *int }
type cacheT35 struct{ X *string }
type cacheT36 struct {
	X []int
	Y string
}
type cacheT37 struct {
	X []string
	Y int
}
type cacheT38 struct {
	X map[string]int
	Y bool
}
type cacheT39 struct {
	X *int
	Y float64
}
type cacheT40 struct {
	X *string
	Y int
}
type cacheT41 struct{ A, B, C, D, E, F, G, H, I, J int }
type cacheT42 struct{ A, B, C, D, E, F, G, H, I, J string }
type cacheT43 struct{ A, B, C, D, E, F, G, H, I, J float64 }
type cacheT44 struct{ A, B, C, D, E, F, G, H, I, J bool }
type cacheT45 struct {
	A int
	B []int
	C map[string]int
	D *int
	E string
}
type cacheT46 struct {
	A string
	B []string
	C map[string]string
	D *string
	E int
}
type cacheT47 struct {
	A float64
	B []float64
	C map[string]float64
	D *float64
	E bool
}
type cacheT48 struct{ A, B, C, D, E, F, G, H, I, J, K, L, M, N, O int }
type cacheT49 struct{ A, B, C, D, E, F, G, H, I, J, K, L, M, N, O string }
type cacheT50 struct{ A, B, C, D, E, F, G, H, I, J, K, L, M, N, O float64 }

// copyManyDistinctTypes populates the cache with 50 distinct struct types.
func copyManyDistinctTypes() {
	Copy(cacheT01{})
	Copy(cacheT02{})
	Copy(cacheT03{})
	Copy(cacheT04{})
	Copy(cacheT05{})
	Copy(cacheT06{})
	Copy(cacheT07{})
	Copy(cacheT08{})
	Copy(cacheT09{})
	Copy(cacheT10{})
	Copy(cacheT11{})
	Copy(cacheT12{})
	Copy(cacheT13{})
	Copy(cacheT14{})
	Copy(cacheT15{})
	Copy(cacheT16{})
	Copy(cacheT17{})
	Copy(cacheT18{})
	Copy(cacheT19{})
	Copy(cacheT20{})
	Copy(cacheT21{})
	Copy(cacheT22{})
	Copy(cacheT23{})
	Copy(cacheT24{})
	Copy(cacheT25{})
	Copy(cacheT26{})
	Copy(cacheT27{})
	Copy(cacheT28{})
	Copy(cacheT29{})
	Copy(cacheT30{})
	Copy(cacheT31{})
	Copy(cacheT32{})
	Copy(cacheT33{})
	Copy(cacheT34{})
	Copy(cacheT35{})
	Copy(cacheT36{})
	Copy(cacheT37{})
	Copy(cacheT38{})
	Copy(cacheT39{})
	Copy(cacheT40{})
	Copy(cacheT41{})
	Copy(cacheT42{})
	Copy(cacheT43{})
	Copy(cacheT44{})
	Copy(cacheT45{})
	Copy(cacheT46{})
	Copy(cacheT47{})
	Copy(cacheT48{})
	Copy(cacheT49{})
	Copy(cacheT50{})
}

// TestCacheMemoryFootprint validates that the struct field cache uses
// bounded, predictable memory. This demonstrates why LRU eviction is
// unnecessary: entries equal distinct struct types, a finite quantity.
func TestCacheMemoryFootprint(t *testing.T) {
	ResetCache()
	t.Cleanup(ResetCache)

	// Use TotalAlloc (monotonically increasing) to measure cumulative
	// allocations. HeapAlloc can decrease due to GC between measurements.
	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	copyManyDistinctTypes()

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	entries, fields, _, _ := CacheStats()
	assert.Equal(t, 50, entries)
	assert.Greater(t, fields, 0)

	// Each structTypeInfo stores a []fieldPlan, each plan carrying a
	// reflect.StructField and a small fixed header. Plus map bucket
	// overhead per entry.
	//
	// For 50 types averaging ~5 fields, total should be well under 1 MB.
	totalAlloc := after.TotalAlloc - before.TotalAlloc
	const maxExpected = 1 << 20 // 1 MB
	assert.Less(t, totalAlloc, uint64(maxExpected),
		"cache for 50 types should use well under 1 MB; got %d bytes",
		totalAlloc)

	t.Logf("cache: %d entries, %d fields, total alloc: %d bytes",
		entries, fields, totalAlloc)
	if entries > 0 {
		t.Logf("estimated per-entry cost: %d bytes",
			totalAlloc/uint64(entries))
	}
}

// TestCachePerEntrySize provides a lower-bound estimate of per-entry
// memory using unsafe.Sizeof on the cached data structures.
func TestCachePerEntrySize(t *testing.T) {
	infoHeaderSize := unsafe.Sizeof(structTypeInfo{})
	t.Logf("structTypeInfo header: %d bytes", infoHeaderSize)

	planSize := unsafe.Sizeof(fieldPlan{})
	t.Logf("fieldPlan size: %d bytes", planSize)
	assert.Greater(t, planSize, uintptr(0))
}

// TestCacheBoundedGrowth verifies that copying the same types repeatedly
// does not grow the cache beyond the number of distinct types.
func TestCacheBoundedGrowth(t *testing.T) {
	ResetCache()
	t.Cleanup(ResetCache)

	copyManyDistinctTypes()
	entries1, fields1, _, _ := CacheStats()

	for range 100 {
		copyManyDistinctTypes()
	}

	entries2, fields2, _, _ := CacheStats()
	assert.Equal(t, entries1, entries2, "cache entries should not grow")
	assert.Equal(t, fields1, fields2, "cached fields should not grow")
}

// TestCacheConcurrentAccess verifies thread safety of the cache under
// concurrent copy operations from multiple goroutines.
func TestCacheConcurrentAccess(t *testing.T) {
	ResetCache()
	t.Cleanup(ResetCache)

	const goroutines = 50
	var wg sync.WaitGroup

	for range goroutines {
		wg.Go(func() {
			copyManyDistinctTypes()
		})
	}
	wg.Wait()

	entries, _, _, _ := CacheStats()
	assert.Equal(t, 50, entries,
		"concurrent access should produce exactly 50 entries")
}

// TestResetCacheConcurrent verifies that ResetCache is safe to call
// concurrently with copy operations.
func TestResetCacheConcurrent(t *testing.T) {
	ResetCache()
	t.Cleanup(ResetCache)

	const goroutines = 20
	var wg sync.WaitGroup

	for i := range goroutines {
		wg.Go(func() {
			copyManyDistinctTypes()
			if i%5 == 0 {
				ResetCache()
			}
		})
	}
	wg.Wait()

	// After all goroutines finish, cache should be in a valid state.
	// The exact count depends on timing, but it must not panic.
	entries, fields, _, _ := CacheStats()
	assert.GreaterOrEqual(t, entries, 0)
	assert.GreaterOrEqual(t, fields, 0)
}
