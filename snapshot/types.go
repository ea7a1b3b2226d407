package snapshot

import (
	"fmt"
)

// Category is the structural class a value is serialized as.
type Category uint8

const (
	CategoryNull Category = iota
	CategoryBool
	CategoryInt
	CategoryUint
	CategoryFloat
	CategoryComplex
	CategoryText
	CategoryBytes
	CategorySequence
	CategoryUnordered
	CategoryMapping
	CategoryNamedRecord // Recorder: fields in declared order
	CategoryObject      // struct or Describer: fields in alphabetical order
	CategoryOpaque      // rendered through String/Error or a type placeholder
	CategoryCyclicReference
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryNull:
		return "null"
	case CategoryBool:
		return "bool"
	case CategoryInt:
		return "int"
	case CategoryUint:
		return "uint"
	case CategoryFloat:
		return "float"
	case CategoryComplex:
		return "complex"
	case CategoryText:
		return "text"
	case CategoryBytes:
		return "bytes"
	case CategorySequence:
		return "sequence"
	case CategoryUnordered:
		return "unordered"
	case CategoryMapping:
		return "mapping"
	case CategoryNamedRecord:
		return "record"
	case CategoryObject:
		return "object"
	case CategoryOpaque:
		return "opaque"
	case CategoryCyclicReference:
		return "cycle"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// IsScalar reports whether values of this category never have children.
func (c Category) IsScalar() bool {
	return c <= CategoryBytes || c == CategoryOpaque
}

// IsComposite reports whether values of this category have children.
func (c Category) IsComposite() bool {
	return c >= CategorySequence && c <= CategoryObject
}

// ============================================================
// Capabilities
// ============================================================

// Field is a named child of a record or object.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for a Field literal.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Entry is a key/value pair of an ordered mapping.
type Entry struct {
	Key   any
	Value any
}

// Recorder is implemented by values with a fixed, declared set of named
// fields. They serialize as Name(a=..., b=...) in declaration order.
type Recorder interface {
	SnapshotRecord() Record
}

// Elementer is implemented by set-like values. Elements are serialized in
// canonical order, independent of the order returned.
type Elementer interface {
	SnapshotElements() []any
}

// EntryLister is implemented by mappings with a stable insertion order.
// Entries are serialized in the order returned.
type EntryLister interface {
	SnapshotEntries() []Entry
}

// Describer is implemented by objects that expose their public data fields
// without reflection. Fields are sorted by name; names starting with an
// underscore are dropped.
type Describer interface {
	SnapshotFields() []Field
}

// ============================================================
// Record
// ============================================================

// Record is a named tuple: a type name plus fields in declared order.
type Record struct {
	Name   string
	Fields []Field
}

// NewRecord creates a record value.
func NewRecord(name string, fields ...Field) Record {
	return Record{Name: name, Fields: fields}
}

// SnapshotRecord implements Recorder.
func (r Record) SnapshotRecord() Record {
	return r
}

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ============================================================
// Set
// ============================================================

// Set is an unordered collection of arbitrary values, including values that
// are not comparable and could not key a Go map.
type Set struct {
	items []any
}

// NewSet creates a set from items. Duplicates are kept as given; callers
// that need uniqueness should deduplicate before.
func NewSet(items ...any) *Set {
	return &Set{items: append([]any(nil), items...)}
}

// Add appends items to the set.
func (s *Set) Add(items ...any) {
	s.items = append(s.items, items...)
}

// Len returns the number of items.
func (s *Set) Len() int {
	return len(s.items)
}

// SnapshotElements implements Elementer.
func (s *Set) SnapshotElements() []any {
	return s.items
}

// ============================================================
// OrderedMap
// ============================================================

// OrderedMap is a mapping that remembers insertion order. Re-setting an
// existing key keeps its original position.
type OrderedMap struct {
	entries []Entry
	index   map[any]int
}

// NewOrderedMap creates an empty ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[any]int)}
}

// Set inserts or replaces the value for key. Key must be comparable.
func (m *OrderedMap) Set(key, value any) *OrderedMap {
	if m.index == nil {
		m.index = make(map[any]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return m
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
	return m
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key any) (any, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	return len(m.entries)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []any {
	keys := make([]any, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// SnapshotEntries implements EntryLister.
func (m *OrderedMap) SnapshotEntries() []Entry {
	return m.entries
}
