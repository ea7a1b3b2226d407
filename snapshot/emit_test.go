package snapshot

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lines joins its arguments with '\n' so expected output reads top-down.
func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

type exampleTuple struct {
	A, B, C, D int
}

type customClass struct {
	B      string
	A      int
	C      []any
	X      any
	y      int
	Method func()
}

type linked struct {
	Next *linked
	V    int
}

type described struct{}

func (described) SnapshotFields() []Field {
	return []Field{F("b", 2), F("_hidden", 3), F("a", 1)}
}

type boom struct{}

func (boom) SnapshotFields() []Field {
	panic("boom")
}

type badStringer struct {
	hidden int
}

func (badStringer) String() string {
	panic(fmt.Errorf("cannot describe"))
}

type color string

// ============================================================
// Scalars
// ============================================================

func TestEmit_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "nil"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"int", 7, "int(7)"},
		{"int8", int8(-3), "int8(-3)"},
		{"uint16", uint16(9), "uint16(9)"},
		{"float", 3.5, "float64(3.5)"},
		{"float division", 2.0 / 6, "float64(0.3333333333333333)"},
		{"float integral", 7.0, "float64(7.0)"},
		{"float exponent", 1e21, "float64(1e+21)"},
		{"float32", float32(0.1), "float32(0.1)"},
		{"negative zero", math.Copysign(0, -1), "float64(0.0)"},
		{"nan", math.NaN(), "float64(NaN)"},
		{"inf", math.Inf(-1), "float64(-Inf)"},
		{"complex", complex(1, 2), "complex128((1+2i))"},
		{"empty string", "", `""`},
		{"raw string", `Raw string`, `"Raw string"`},
		{"escaped", `Escaped \n`, `"Escaped \\n"`},
		{"backslash", `Backslash \u U`, `"Backslash \\u U"`},
		{"emoji", "🥞🐍🍯", `"🥞🐍🍯"`},
		{"colon", "singleline:", `"singleline:"`},
		{"dash", "- singleline", `"- singleline"`},
		{"quotes", "string with 'quotes'", `"string with 'quotes'"`},
		{"double quotes", `say "hi"`, `"say \"hi\""`},
		{"tab", "a\tb", `"a\tb"`},
		{"control", "a\x01b", `"a\u0001b"`},
		{"invalid utf8", "a\xffb", `"a\xffb"`},
		{"bytes", []byte("Byte string"), `[]byte("Byte string")`},
		{"named string", color("red"), `snapshot.color("red")`},
		{"duration", 2 * time.Second, "time.Duration(2000000000)"},
		{"time", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), `time.Time("2020-01-02T03:04:05Z")`},
		{"error", fmt.Errorf("boom"), `&errors.errorString("boom")`},
		{"pointer to time", func() *time.Time { tm := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC); return &tm }(), `&time.Time("2020-01-02T03:04:05Z")`},
		{"pointer to nil interface", func() *any { var x any; return &x }(), "(&interface {})(nil)"},
		{"pointer to nil error", func() *error { var err error; return &err }(), "(&error)(nil)"},
		{"nil pointer", (*int)(nil), "(*int)(nil)"},
		{"nil slice", []string(nil), "[]string(nil)"},
		{"nil map", map[string]int(nil), "map[string]int(nil)"},
		{"pointer to int", func() *int { i := 5; return &i }(), "&int(5)"},
		{"chan", make(chan int), "<chan int>"},
		{"func", func() {}, "<func()>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(tt.input))
		})
	}
}

func TestEmit_MultilineStrings(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "two lines",
			input: "multi-line\nline 2\nline 3",
			want: lines(
				`"""`,
				`  multi-line`,
				`  line 2`,
				`  line 3`,
				`"""`,
			),
		},
		{
			name:  "leading spaces kept",
			input: "multi-line\nline 2\n  line 3",
			want: lines(
				`"""`,
				`  multi-line`,
				`  line 2`,
				`    line 3`,
				`"""`,
			),
		},
		{
			name:  "trailing newline",
			input: "line 1\n",
			want: lines(
				`"""`,
				`  line 1`,
				``,
				`"""`,
			),
		},
		{
			name:  "crlf",
			input: "line 1\r\nline 2",
			want: lines(
				`"""`,
				`  line 1\r`,
				`  line 2`,
				`"""`,
			),
		},
		{
			name:  "lone carriage return",
			input: "line 1\rline 2",
			want: lines(
				`"""`,
				`  line 1\rline 2`,
				`"""`,
			),
		},
		{
			name:  "backslash in block",
			input: "C:\\dir\nnext",
			want: lines(
				`"""`,
				`  C:\\dir`,
				`  next`,
				`"""`,
			),
		},
		{
			name:  "named",
			input: color("a\nb"),
			want: lines(
				`snapshot.color("""`,
				`  a`,
				`  b`,
				`""")`,
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(tt.input))
		})
	}
}

// ============================================================
// Containers
// ============================================================

func TestEmit_Sequences(t *testing.T) {
	assert.Equal(t, "[]interface {}{}", Serialize([]any{}))
	assert.Equal(t, "[0]int{}", Serialize([0]int{}))

	got := Serialize([]any{1, 2, "string", map[string]string{"key": "value"}})
	want := lines(
		`[]interface {}{`,
		`  int(1),`,
		`  int(2),`,
		`  "string",`,
		`  map[string]string{`,
		`    "key": "value",`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)

	got = Serialize([]any{"contains", "empty", []any{}})
	want = lines(
		`[]interface {}{`,
		`  "contains",`,
		`  "empty",`,
		`  []interface {}{},`,
		`}`,
	)
	assert.Equal(t, want, got)
}

func TestEmit_NestedMapping(t *testing.T) {
	got := Serialize(map[string]any{
		"b": true,
		"a": map[string]any{"e": false},
	})
	want := lines(
		`map[string]interface {}{`,
		`  "a": map[string]interface {}{`,
		`    "e": false,`,
		`  },`,
		`  "b": true,`,
		`}`,
	)
	assert.Equal(t, want, got)
}

func TestEmit_MultilineInMapping(t *testing.T) {
	got := Serialize(map[string]string{"value": "line 1\nline 2"})
	want := lines(
		`map[string]string{`,
		`  "value": """`,
		`    line 1`,
		`    line 2`,
		`  """,`,
		`}`,
	)
	assert.Equal(t, want, got)

	got = Serialize(map[string]any{
		"value_a": map[string]string{"value_b": "line 1\nline 2\nline 3"},
	})
	want = lines(
		`map[string]interface {}{`,
		`  "value_a": map[string]string{`,
		`    "value_b": """`,
		`      line 1`,
		`      line 2`,
		`      line 3`,
		`    """,`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)

	got = Serialize(map[string][]any{"key": {1, []string{"line1\nline2"}, 2}})
	want = lines(
		`map[string][]interface {}{`,
		`  "key": []interface {}{`,
		`    int(1),`,
		`    []string{`,
		`      """`,
		`        line1`,
		`        line2`,
		`      """,`,
		`    },`,
		`    int(2),`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)
}

func TestEmit_CompositeKeys(t *testing.T) {
	got := Serialize(map[any]any{
		1:                   true,
		"a":                 "Some ttext.",
		"multi\nline\nkey":  "Some morre text.",
		[2]string{"1", "2"}: []any{"1", 2},
		exampleTuple{A: 1, B: 2, C: 3, D: 4}: map[string]bool{"e": false},
		"key":                                nil,
	})
	want := lines(
		`map[interface {}]interface {}{`,
		`  """`,
		`    multi`,
		`    line`,
		`    key`,
		`  """: "Some morre text.",`,
		`  "a": "Some ttext.",`,
		`  "key": nil,`,
		`  [2]string{`,
		`    "1",`,
		`    "2",`,
		`  }: []interface {}{`,
		`    "1",`,
		`    int(2),`,
		`  },`,
		`  int(1): true,`,
		`  snapshot.exampleTuple{`,
		`    A: int(1),`,
		`    B: int(2),`,
		`    C: int(3),`,
		`    D: int(4),`,
		`  }: map[string]bool{`,
		`    "e": false,`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)
}

func TestEmit_Sets(t *testing.T) {
	got := Serialize(map[string]struct{}{"this": {}, "is": {}, "a": {}, "set": {}})
	want := lines(
		`map[string]struct {}{`,
		`  "a",`,
		`  "is",`,
		`  "set",`,
		`  "this",`,
		`}`,
	)
	assert.Equal(t, want, got)

	got = Serialize(NewSet("contains", "tuple", []int{1, 2}))
	want = lines(
		`snapshot.Set{`,
		`  "contains",`,
		`  "tuple",`,
		`  []int{`,
		`    int(1),`,
		`    int(2),`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)

	got = Serialize(NewSet("contains", "frozen", NewSet("2", "1")))
	want = lines(
		`snapshot.Set{`,
		`  "contains",`,
		`  "frozen",`,
		`  snapshot.Set{`,
		`    "1",`,
		`    "2",`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)

	assert.Equal(t, "map[string]struct {}{}", Serialize(map[string]struct{}{}))
	assert.Equal(t, "snapshot.Set{}", Serialize(NewSet()))
}

func TestEmit_Records(t *testing.T) {
	got := Serialize(NewRecord("ExampleTuple", F("a", 1), F("b", 2), F("c", 3), F("d", 4)))
	want := lines(
		`ExampleTuple(`,
		`  a=int(1),`,
		`  b=int(2),`,
		`  c=int(3),`,
		`  d=int(4),`,
		`)`,
	)
	assert.Equal(t, want, got)

	got = Serialize(NewRecord("ExampleTuple",
		F("a", "this"), F("b", "is"), F("c", "a"),
		F("d", map[string]struct{}{"named": {}, "tuple": {}}),
	))
	want = lines(
		`ExampleTuple(`,
		`  a="this",`,
		`  b="is",`,
		`  c="a",`,
		`  d=map[string]struct {}{`,
		`    "named",`,
		`    "tuple",`,
		`  },`,
		`)`,
	)
	assert.Equal(t, want, got)

	assert.Equal(t, "Empty()", Serialize(NewRecord("Empty")))
}

func TestEmit_OrderedMapKeepsInsertionOrder(t *testing.T) {
	inner := NewOrderedMap().Set("b", true).Set("a", false)
	m := NewOrderedMap().Set("b", 0).Set("a", inner)

	want := lines(
		`snapshot.OrderedMap{`,
		`  "b": int(0),`,
		`  "a": snapshot.OrderedMap{`,
		`    "b": true,`,
		`    "a": false,`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, Serialize(m))
}

// ============================================================
// Objects
// ============================================================

func TestEmit_CustomObject(t *testing.T) {
	got := Serialize(&customClass{B: "2", A: 1, X: &customClass{}, y: 7, Method: func() {}})
	want := lines(
		`&snapshot.customClass{`,
		`  A: int(1),`,
		`  B: "2",`,
		`  C: []interface {}(nil),`,
		`  X: &snapshot.customClass{`,
		`    A: int(0),`,
		`    B: "",`,
		`    C: []interface {}(nil),`,
		`    X: nil,`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "Method")
	assert.NotContains(t, got, "y:")
}

func TestEmit_Describer(t *testing.T) {
	want := lines(
		`snapshot.described{`,
		`  a: int(1),`,
		`  b: int(2),`,
		`}`,
	)
	assert.Equal(t, want, Serialize(described{}))
}

// ============================================================
// Cycles
// ============================================================

func TestEmit_Cycles(t *testing.T) {
	list := []any{1, 2, 3, nil}
	list[3] = list
	want := lines(
		`[]interface {}{`,
		`  int(1),`,
		`  int(2),`,
		`  int(3),`,
		`  <cycle []interface {}>,`,
		`}`,
	)
	assert.Equal(t, want, Serialize(list))

	dict := map[string]any{"a": 1, "b": 2, "c": 3}
	dict["d"] = dict
	want = lines(
		`map[string]interface {}{`,
		`  "a": int(1),`,
		`  "b": int(2),`,
		`  "c": int(3),`,
		`  "d": <cycle map[string]interface {}>,`,
		`}`,
	)
	assert.Equal(t, want, Serialize(dict))

	n := &linked{V: 1}
	n.Next = n
	want = lines(
		`&snapshot.linked{`,
		`  Next: <cycle &snapshot.linked>,`,
		`  V: int(1),`,
		`}`,
	)
	assert.Equal(t, want, Serialize(n))
}

func TestEmit_SiblingsAreNotCollapsed(t *testing.T) {
	shared := []int{1}
	want := lines(
		`[]interface {}{`,
		`  []int{`,
		`    int(1),`,
		`  },`,
		`  []int{`,
		`    int(1),`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, Serialize([]any{shared, shared}))
}

// ============================================================
// Degraded values
// ============================================================

func TestEmit_Unrenderable(t *testing.T) {
	assert.Equal(t, `<unrenderable snapshot.boom: "boom">`, Serialize(boom{}))
	assert.Equal(t, `<unrenderable snapshot.badStringer: "cannot describe">`, Serialize(badStringer{}))

	want := lines(
		`[]interface {}{`,
		`  <unrenderable snapshot.boom: "boom">,`,
		`  int(1),`,
		`}`,
	)
	assert.Equal(t, want, Serialize([]any{boom{}, 1}))
}

func TestEmit_MaxDepth(t *testing.T) {
	deep := []any{[]any{[]any{[]any{}}}}
	got := SerializeWithOptions(deep, Options{MaxDepth: 2})
	want := lines(
		`[]interface {}{`,
		`  []interface {}{`,
		`    []interface {}{`,
		`      <max depth []interface {}>,`,
		`    },`,
		`  },`,
		`}`,
	)
	assert.Equal(t, want, got)
}

func TestEmit_CustomIndent(t *testing.T) {
	got := SerializeWithOptions(map[string]any{"k": []int{1}, "s": "a\nb"}, Options{Indent: "\t"})
	want := lines(
		"map[string]interface {}{",
		"\t\"k\": []int{",
		"\t\tint(1),",
		"\t},",
		"\t\"s\": \"\"\"",
		"\t\ta",
		"\t\tb",
		"\t\"\"\",",
		"}",
	)
	require.Equal(t, want, got)
}
