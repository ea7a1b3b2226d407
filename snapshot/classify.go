package snapshot

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
)

// ============================================================
// Value Classification
// ============================================================
//
// classify inspects one value and decides which category it is serialized
// as. It never calls user methods; capability interfaces are only checked
// for satisfaction. Rules, first match wins:
//
//   - nil (untyped, or a nil pointer/map/slice/func/chan)  → null
//   - bool, ints, uints, floats, complex                    → scalar
//   - string kind, byte slices                              → text, bytes
//   - Recorder                                              → record
//   - Elementer                                             → unordered
//   - EntryLister                                           → mapping (ordered)
//   - Describer                                             → object
//   - error, fields-less Stringer/TextMarshaler struct      → opaque
//   - slice, array                                          → sequence
//   - map[K]struct{}                                        → unordered
//   - map                                                   → mapping (sorted)
//   - struct                                                → object
//   - anything else (chan, func, unsafe.Pointer)            → opaque

var (
	recorderType      = reflect.TypeOf((*Recorder)(nil)).Elem()
	elementerType     = reflect.TypeOf((*Elementer)(nil)).Elem()
	entryListerType   = reflect.TypeOf((*EntryLister)(nil)).Elem()
	describerType     = reflect.TypeOf((*Describer)(nil)).Elem()
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	byteSliceType     = reflect.TypeOf([]byte(nil))
	emptyStructType   = reflect.TypeOf(struct{}{})
)

// identity is an opaque token for a value that can be reached twice through
// references: pointers and maps by address, slices by data pointer and
// length.
type identity struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// node is a classified value.
type node struct {
	cat Category
	// v is the value after unwrapping interfaces and following pointers
	// (capability holders are not followed).
	v reflect.Value
	// tag is the type tag written in front of the value.
	tag string
	// ids holds the identities that must be entered before the node's
	// children are written: the pointers followed plus the container itself.
	ids []identity
}

// Classify returns the category v is serialized as.
func Classify(v any) Category {
	return classify(reflect.ValueOf(v)).cat
}

func classify(v reflect.Value) node {
	v = unwrapInterface(v)
	if !v.IsValid() {
		return node{cat: CategoryNull}
	}

	var (
		ids    []identity
		prefix string
	)
	for {
		if isNil(v) {
			return node{cat: CategoryNull, v: v, tag: prefix + typeString(v.Type()), ids: ids}
		}
		if cat, ok := classifyCapability(v); ok {
			return capabilityNode(cat, v, v.Type(), prefix, ids)
		}
		// Methods with pointer receivers are callable on addressable values,
		// such as slice elements and fields reached through a pointer.
		if v.Kind() != reflect.Pointer && !isScalarKind(v.Kind()) && v.CanAddr() {
			if cat, ok := classifyCapability(v.Addr()); ok {
				return capabilityNode(cat, v.Addr(), v.Type(), prefix, ids)
			}
		}
		if v.Kind() != reflect.Pointer {
			break
		}

		id, _ := identityOf(v)
		for _, seen := range ids {
			if seen == id {
				return node{cat: CategoryCyclicReference, v: v, tag: pointerTag(prefix, v.Type()), ids: ids}
			}
		}
		ids = append(ids, id)
		prefix += "&"
		elem := v.Elem()
		v = unwrapInterface(elem)
		if !v.IsValid() {
			return node{cat: CategoryNull, v: elem, tag: prefix + typeString(elem.Type()), ids: ids}
		}
	}

	n := node{cat: classifyKind(v), v: v, tag: prefix + typeString(v.Type()), ids: ids}
	if n.cat.IsComposite() {
		if id, ok := identityOf(v); ok {
			n.ids = append(n.ids, id)
		}
	}
	return n
}

// capabilityNode builds the node of a capability holder v. held is the type
// the value was reached as, which names opaque values.
func capabilityNode(cat Category, v reflect.Value, held reflect.Type, prefix string, ids []identity) node {
	tag := capabilityTag(held)
	if cat == CategoryOpaque {
		tag = pointerTag(prefix, held)
	}
	n := node{cat: cat, v: v, tag: tag, ids: ids}
	if id, ok := identityOf(v); ok {
		n.ids = append(n.ids, id)
	}
	return n
}

// classifyCapability checks the capability interfaces that outrank the
// structural kinds of a value. It runs at every pointer level, so methods
// with pointer receivers are found before the pointer is followed.
func classifyCapability(v reflect.Value) (Category, bool) {
	if isScalarKind(v.Kind()) {
		return 0, false
	}
	t := v.Type()
	switch {
	case t.Implements(recorderType):
		return CategoryNamedRecord, true
	case t.Implements(elementerType):
		return CategoryUnordered, true
	case t.Implements(entryListerType):
		return CategoryMapping, true
	case t.Implements(describerType):
		return CategoryObject, true
	case t.Implements(errorType), isOpaqueStruct(t):
		return CategoryOpaque, true
	}
	return 0, false
}

// isOpaqueStruct reports whether t is a struct (or pointer to one) without
// exported data fields that can still describe itself as text, such as
// time.Time.
func isOpaqueStruct(t reflect.Type) bool {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct || len(exportedFields(base)) > 0 {
		return false
	}
	return t.Implements(textMarshalerType) || t.Implements(stringerType)
}

func classifyKind(v reflect.Value) Category {
	t := v.Type()
	switch v.Kind() {
	case reflect.Bool:
		return CategoryBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return CategoryInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return CategoryUint
	case reflect.Float32, reflect.Float64:
		return CategoryFloat
	case reflect.Complex64, reflect.Complex128:
		return CategoryComplex
	case reflect.String:
		return CategoryText
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return CategoryBytes
		}
		return CategorySequence
	case reflect.Array:
		return CategorySequence
	case reflect.Map:
		if t.Elem() == emptyStructType {
			return CategoryUnordered
		}
		return CategoryMapping
	}

	if v.Kind() == reflect.Struct {
		return CategoryObject
	}
	return CategoryOpaque
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		return identity{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.Pointer(), n: v.Len()}, true
	}
	return identity{}, false
}

// exportedFields returns the indexes of the exported, non-callable fields
// of a struct type.
func exportedFields(t reflect.Type) []int {
	var out []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() == reflect.Func {
			continue
		}
		out = append(out, i)
	}
	return out
}

// ============================================================
// Type Tags
// ============================================================

func typeString(t reflect.Type) string {
	if t == byteSliceType {
		return "[]byte"
	}
	return t.String()
}

// capabilityTag names a capability holder by its value type; holding it
// through a pointer does not change how it is written.
func capabilityTag(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return typeString(t)
}

// pointerTag writes the unnamed pointer levels of t with the '&' marker
// used for followed pointers, so a held *T reads the same as a followed one.
func pointerTag(prefix string, t reflect.Type) string {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		prefix += "&"
		t = t.Elem()
	}
	return prefix + typeString(t)
}

// nilTag renders a typed nil the way %#v does: (*T)(nil), []T(nil).
func nilTag(tag string) string {
	if strings.HasPrefix(tag, "*") || strings.HasPrefix(tag, "func") ||
		strings.HasPrefix(tag, "chan") || strings.HasPrefix(tag, "<-chan") ||
		strings.HasPrefix(tag, "&") {
		return "(" + tag + ")(nil)"
	}
	return tag + "(nil)"
}
