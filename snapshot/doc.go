// Package snapshot implements a deterministic, human-readable serializer for
// arbitrary Go values, producing text that is stable across runs and easy to
// diff.
//
// The serializer is designed to be:
//   - Deterministic (maps and sets in canonical order, fields sorted)
//   - Cycle safe (references back to an ancestor become markers)
//   - Lossless for text (multi-line strings keep every line ending)
//   - Total (it never panics; unrenderable values become placeholders)
//
// # Data Model
//
// Scalars: nil, bool, int, uint, float, complex, text, bytes
// Containers: sequence, unordered, mapping, record, object
// Special: opaque (String/Error/MarshalText), cycle
//
// # Syntax
//
// Scalar:     int(7)  float64(3.5)  "text"  []byte("raw")  true  nil
// Sequence:   []int{ ... }
// Unordered:  map[string]struct {}{ ... }  snapshot.Set{ ... }
// Mapping:    map[string]int{ "a": int(1), }
// Record:     Name( a=int(1), )
// Object:     pkg.T{ A: int(1), }  &pkg.T{ ... }
// Cycle:      <cycle []interface {}>
//
// Every child sits on its own line, one indent unit deeper than its parent.
// Strings containing a line break are written as a block:
//
//	"""
//	  line 1\r
//	  line 2
//	"""
//
// Block lines are verbatim except that '\' and '\r' are escaped, so \n,
// \r\n and \r endings stay distinguishable.
//
// # Example
//
//	map[string]interface {}{
//	  "a": map[string]interface {}{
//	    "e": false,
//	  },
//	  "b": true,
//	}
//
// # Capabilities
//
// Types that cannot be described by reflection alone opt in through
// Recorder (named tuples, declared field order), Elementer (sets of
// non-comparable values), EntryLister (insertion-ordered maps) and
// Describer (custom objects).
package snapshot
