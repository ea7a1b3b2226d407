package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Get(t *testing.T) {
	r := NewRecord("Point", F("x", 1), F("y", "two"))

	v, ok := r.Get("y")
	require.True(t, ok)
	assert.Equal(t, "two", v)

	_, ok = r.Get("z")
	assert.False(t, ok)
	assert.Equal(t, r, r.SnapshotRecord())
}

func TestSet_Add(t *testing.T) {
	s := NewSet(1)
	assert.Equal(t, 1, s.Len())

	s.Add([]int{2}, "three")
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []any{1, []int{2}, "three"}, s.SnapshotElements())

	// NewSet copies its arguments.
	items := []any{"a"}
	s = NewSet(items...)
	items[0] = "b"
	assert.Equal(t, []any{"a"}, s.SnapshotElements())
}

func TestOrderedMap(t *testing.T) {
	m := NewOrderedMap().Set("b", 1).Set("a", 2)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []any{"b", "a"}, m.Keys())

	// Re-setting a key replaces the value in place.
	m.Set("b", 3)
	assert.Equal(t, []any{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = m.Get("c")
	assert.False(t, ok)

	var zero OrderedMap
	zero.Set(1, "x")
	assert.Equal(t, 1, zero.Len())
	assert.Equal(t, []Entry{{Key: 1, Value: "x"}}, zero.SnapshotEntries())
}
