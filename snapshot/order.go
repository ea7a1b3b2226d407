package snapshot

import (
	"reflect"
	"sort"
	"strings"
)

// ============================================================
// Canonical Ordering
// ============================================================
//
// Children without a meaningful order (set elements, keys of Go maps) are
// sorted by their own serialized text. Every child is serialized exactly
// once; the cached text is what gets written afterwards.
//
// Ordering rules:
//   - primary: bytewise comparison of the child's depth-0 text
//   - secondary (entries only): bytewise comparison of the value text,
//     computed only for keys that serialize identically
//   - remaining ties keep encounter order (stable sort)

// orderedItem is a child with its cached canonical text.
type orderedItem struct {
	text string
	seq  int
}

// canonicalOrder sorts pre-rendered items by their text.
func canonicalOrder(texts []string) []orderedItem {
	items := make([]orderedItem, len(texts))
	for i, t := range texts {
		items[i] = orderedItem{text: t, seq: i}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].text < items[j].text
	})
	return items
}

// orderedEntry is a mapping entry with its cached key text. The value text
// is only rendered when two keys collide.
type orderedEntry struct {
	key      string
	val      reflect.Value
	value    string
	rendered bool
}

// canonicalEntries sorts entries by key text, then by value text for keys
// that serialize identically. render is called at most once per entry.
func canonicalEntries(entries []*orderedEntry, render func(reflect.Value) string) {
	valueText := func(e *orderedEntry) string {
		if !e.rendered {
			e.value = render(e.val)
			e.rendered = true
		}
		return e.value
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if c := strings.Compare(entries[i].key, entries[j].key); c != 0 {
			return c < 0
		}
		return valueText(entries[i]) < valueText(entries[j])
	})
}
