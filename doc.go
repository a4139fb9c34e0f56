// Package deepcopy provides a general-purpose deep-copy engine for
// arbitrary in-memory object graphs.
//
// This package is designed for extreme performance optimization, utilizing
// Go 1.21+ generics, reflection caching, and careful memory management to
// achieve zero-allocation hot paths where possible.
//
// Basic Usage:
//
//	import "github.com/reubenbond/deepcopy"
//
//	// Copy any value with deep-copy semantics
//	dst := deepcopy.Copy(src)
//
//	// For custom types, implement the Cloneable interface
//	type MyStruct struct {
//	    Name string
//	    Data []int
//	}
//
//	func (m MyStruct) Clone() any {
//	    return MyStruct{
//	        Name: m.Name,
//	        Data: deepcopy.Copy(m.Data),
//	    }
//	}
//
// Performance Features:
//   - Zero-allocation fast paths for primitive types
//   - Reflection result caching for struct field plans, per-type copiers,
//     and type classifications
//   - Optimized fast paths for common slice and map instantiations
//   - sync.Pool-backed Context reuse across calls
//
// Supported Types:
//   - All primitive types (int, string, bool, etc.)
//   - Slices, maps, and fixed-rank arrays (with deep copying of elements)
//   - Pointers and pointer chains (with cycle detection)
//   - Structs, including unexported fields (with automatic field-by-field
//     copying)
//   - Interfaces (with concrete type preservation)
//   - Custom types implementing the Cloneable interface
//   - Types registered, or marked via ImmutableType, as safe to alias
//     outright instead of copying
//
// Deep Copy Semantics:
//   - Copying is deep by default; immutable and shallow-copyable types are
//     the explicit exceptions, not the rule
//   - Two positions that share one object in the input share one object in
//     the output; cycles map to isomorphic cycles
//   - Custom types can override default behavior via the Cloneable
//     interface
//
// Thread Safety:
//   - Copy and TryCopy are safe to call concurrently from multiple
//     goroutines
//   - Internal caches use concurrent-safe mechanisms
//   - A Context passed explicitly via CopyWithContext is not itself safe
//     for concurrent use
package deepcopy
