package deepcopy

import "reflect"

// Array types (spec §4.3) are Go's fixed-shape, compile-time-rank
// sequences — [N]T, [N][M]T, and so on — as distinct from slices, which
// are reference-like (a backing array can be shared by several headers)
// and are handled directly by the dispatcher alongside maps and pointers.
//
// Go represents a rank-R array as R nested layers of reflect.Kind ==
// Array, one dimension per layer, each already carrying its own length.
// That means the "stride table / linear index / coordinate decomposition"
// spec §4.3 describes for a rank->=3 walker falls out of ordinary
// recursive descent through the nesting — reflect already knows every
// dimension's length at each layer, so there is nothing to hand-compute.
// What the table actually asks the engine to vary on is the *leaf*
// element's policy: whether the bottom of the nesting is Immutable (block
// copy, any rank) or Mutable (recurse, any rank).

// leafElemType peels every Array layer off t and returns what remains —
// the scalar (or reference-like) type actually stored at each grid cell.
func leafElemType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t
}

// copyArray produces a deep copy of array value v, applying the rank-aware
// strategy from spec §4.3: a block copy when every leaf cell is Immutable
// or ShallowCopyable (no mutable state is reachable anywhere in the grid,
// at any rank), otherwise an element-by-element recursive copy that
// preserves intra-array aliasing via ctx.
func copyArray(v reflect.Value, ctx *Context) (reflect.Value, error) {
	t := v.Type()

	// The block-copy eligibility is governed by the type at the bottom of
	// the nesting, not the immediate nested-array element (which is always
	// Mutable, by rule 4, regardless of what it ultimately bottoms out at).
	leafPolicy := ClassifyType(leafElemType(t))

	if leafPolicy != Mutable {
		// Every cell, at every depth, is Immutable or ShallowCopyable: no
		// mutable state is reachable anywhere in the grid, so a
		// single block copy reproduces it exactly. reflect.Copy supports
		// Array destinations as well as Slice, and recurses through
		// matching nested-array element types on its own.
		dst := reflect.New(t).Elem()
		reflect.Copy(dst, v)
		return dst, nil
	}

	dst := reflect.New(t).Elem()
	n := v.Len()
	for i := 0; i < n; i++ {
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
