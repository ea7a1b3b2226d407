package snapshot

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// emitter writes one value tree. Nested renders used for canonical ordering
// share the guard and options but write to their own builder.
type emitter struct {
	sb    strings.Builder
	opts  Options
	guard *cycleGuard
	// base is the level written at column zero.
	base int
}

func newEmitter(opts Options) *emitter {
	return &emitter{opts: opts, guard: &cycleGuard{}}
}

// emit writes v at the current position. Continuation lines are indented
// for level; the caller has already written the first line's indentation.
func (e *emitter) emit(v reflect.Value, level int) {
	n := classify(v)

	switch n.cat {
	case CategoryNull:
		e.emitNull(n)
	case CategoryBool:
		e.emitBool(n)
	case CategoryInt:
		e.emitTagged(n, canonInt(n.v.Int()))
	case CategoryUint:
		e.emitTagged(n, canonUint(n.v.Uint()))
	case CategoryFloat:
		e.emitTagged(n, canonFloat(n.v.Float(), n.v.Type().Bits()))
	case CategoryComplex:
		e.emitTagged(n, canonComplex(n.v.Complex(), n.v.Type().Bits()))
	case CategoryText:
		e.emitText(n, level)
	case CategoryBytes:
		e.emitTagged(n, quoteString(string(n.v.Bytes())))
	case CategoryOpaque:
		e.emitOpaque(n)
	case CategoryCyclicReference:
		e.emitCycle(n)
	default:
		e.emitComposite(n, level)
	}
}

// render serializes v as a standalone block whose first line sits at
// column zero, as if it were written at level.
func (e *emitter) render(v reflect.Value, level int) string {
	sub := &emitter{opts: e.opts, guard: e.guard, base: level}
	sub.emit(v, level)
	return sub.sb.String()
}

// writeRendered writes text produced by render at level.
func (e *emitter) writeRendered(text string, level int) {
	e.sb.WriteString(reindent(text, e.indent(level)))
}

func (e *emitter) indent(level int) string {
	if level <= e.base {
		return ""
	}
	return strings.Repeat(e.opts.Indent, level-e.base)
}

func (e *emitter) writeIndent(level int) {
	for i := e.base; i < level; i++ {
		e.sb.WriteString(e.opts.Indent)
	}
}

func (e *emitter) newline(level int) {
	e.sb.WriteByte('\n')
	e.writeIndent(level)
}

// ============================================================
// Scalars
// ============================================================

func (e *emitter) emitNull(n node) {
	if n.tag == "" {
		e.sb.WriteString(nullText)
		return
	}
	e.sb.WriteString(nilTag(n.tag))
}

func (e *emitter) emitBool(n node) {
	s := "false"
	if n.v.Bool() {
		s = "true"
	}
	if n.tag == "bool" {
		e.sb.WriteString(s)
		return
	}
	e.emitTagged(n, s)
}

// emitTagged writes tag(content).
func (e *emitter) emitTagged(n node, content string) {
	e.sb.WriteString(n.tag)
	e.sb.WriteByte('(')
	e.sb.WriteString(content)
	e.sb.WriteByte(')')
}

// emitText writes a string. Strings containing a line break switch to the
// block form: the opening quote, one line per '\n'-separated segment at
// level+1, and the closing quote back at level. Segments that are empty
// produce empty lines.
func (e *emitter) emitText(n node, level int) {
	s := n.v.String()
	bare := n.tag == "string"

	if !isMultiline(s) {
		if bare {
			e.sb.WriteString(quoteString(s))
		} else {
			e.emitTagged(n, quoteString(s))
		}
		return
	}

	if !bare {
		e.sb.WriteString(n.tag)
		e.sb.WriteByte('(')
	}
	e.sb.WriteString(blockQuote)
	for _, line := range strings.Split(s, "\n") {
		e.sb.WriteByte('\n')
		if line == "" {
			continue
		}
		e.writeIndent(level + 1)
		e.sb.WriteString(escapeBlockLine(line))
	}
	e.newline(level)
	e.sb.WriteString(blockQuote)
	if !bare {
		e.sb.WriteByte(')')
	}
}

// emitOpaque writes values that have no walkable structure. Errors use
// Error, fields-less structs use MarshalText or String, and everything else
// is named by its type only so the output never carries an address.
func (e *emitter) emitOpaque(n node) {
	if !n.v.CanInterface() {
		e.writePlaceholder(n.tag)
		return
	}

	res, err := protect(func() opaqueText {
		switch x := n.v.Interface().(type) {
		case error:
			return opaqueText{text: x.Error(), ok: true}
		case encoding.TextMarshaler:
			b, err := x.MarshalText()
			if err == nil {
				return opaqueText{text: string(b), ok: true}
			}
			if s, isStringer := x.(fmt.Stringer); isStringer {
				return opaqueText{text: s.String(), ok: true}
			}
			panic(err)
		case fmt.Stringer:
			return opaqueText{text: x.String(), ok: true}
		}
		return opaqueText{}
	})
	if err != nil {
		e.emitUnrenderable(n, err)
		return
	}
	if !res.ok {
		e.writePlaceholder(n.tag)
		return
	}
	e.emitTagged(n, quoteString(res.text))
}

type opaqueText struct {
	text string
	ok   bool
}

func (e *emitter) writePlaceholder(tag string) {
	e.sb.WriteByte('<')
	e.sb.WriteString(tag)
	e.sb.WriteByte('>')
}

func (e *emitter) emitCycle(n node) {
	e.sb.WriteString("<cycle ")
	e.sb.WriteString(n.tag)
	e.sb.WriteByte('>')
}

func (e *emitter) emitUnrenderable(n node, err error) {
	e.opts.Logger.Debug("value could not be rendered",
		zap.String("type", n.tag), zap.Error(err))
	e.sb.WriteString("<unrenderable ")
	e.sb.WriteString(n.tag)
	e.sb.WriteString(": ")
	e.sb.WriteString(quoteString(err.Error()))
	e.sb.WriteByte('>')
}

// ============================================================
// Composites
// ============================================================

func (e *emitter) emitComposite(n node, level int) {
	if level > e.opts.MaxDepth {
		e.opts.Logger.Debug("maximum depth exceeded",
			zap.String("type", n.tag), zap.Int("depth", level))
		e.sb.WriteString("<max depth ")
		e.sb.WriteString(n.tag)
		e.sb.WriteByte('>')
		return
	}
	if !e.guard.enterAll(n.ids) {
		e.emitCycle(n)
		return
	}
	defer e.guard.exitAll(n.ids)

	switch n.cat {
	case CategorySequence:
		e.emitSequence(n, level)
	case CategoryUnordered:
		e.emitUnordered(n, level)
	case CategoryMapping:
		e.emitMapping(n, level)
	case CategoryNamedRecord:
		e.emitRecord(n, level)
	case CategoryObject:
		e.emitObject(n, level)
	}
}

// enterChildren guards the slice a capability returned, so values that
// hand out the same backing slice on every call still terminate.
func (e *emitter) enterChildren(n node, children any) (func(), bool) {
	id, ok := identityOf(reflect.ValueOf(children))
	if !ok {
		return func() {}, true
	}
	if !e.guard.enter(id) {
		e.emitCycle(n)
		return nil, false
	}
	return func() { e.guard.exit(id) }, true
}

func (e *emitter) emitSequence(n node, level int) {
	count := n.v.Len()
	e.sb.WriteString(n.tag)
	if count == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteByte('{')
	for i := 0; i < count; i++ {
		e.newline(level + 1)
		e.emit(n.v.Index(i), level+1)
		e.sb.WriteByte(',')
	}
	e.newline(level)
	e.sb.WriteByte('}')
}

func (e *emitter) emitUnordered(n node, level int) {
	var elems []reflect.Value
	if n.v.Kind() == reflect.Map && !n.v.Type().Implements(elementerType) {
		elems = n.v.MapKeys()
	} else {
		items, err := protect(func() []any {
			return n.v.Interface().(Elementer).SnapshotElements()
		})
		if err != nil {
			e.emitUnrenderable(n, err)
			return
		}
		done, ok := e.enterChildren(n, items)
		if !ok {
			return
		}
		defer done()
		elems = lo.Map(items, func(item any, _ int) reflect.Value {
			return reflect.ValueOf(item)
		})
	}

	texts := make([]string, len(elems))
	for i, el := range elems {
		texts[i] = e.render(el, level+1)
	}

	e.sb.WriteString(n.tag)
	if len(texts) == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteByte('{')
	for _, item := range canonicalOrder(texts) {
		e.newline(level + 1)
		e.writeRendered(item.text, level+1)
		e.sb.WriteByte(',')
	}
	e.newline(level)
	e.sb.WriteByte('}')
}

func (e *emitter) emitMapping(n node, level int) {
	if n.v.Type().Implements(entryListerType) {
		e.emitOrderedMapping(n, level)
		return
	}

	entries := make([]*orderedEntry, 0, n.v.Len())
	iter := n.v.MapRange()
	for iter.Next() {
		entries = append(entries, &orderedEntry{
			key: e.render(iter.Key(), level+1),
			val: iter.Value(),
		})
	}
	canonicalEntries(entries, func(v reflect.Value) string {
		return e.render(v, level+1)
	})

	e.sb.WriteString(n.tag)
	if len(entries) == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteByte('{')
	for _, entry := range entries {
		e.newline(level + 1)
		e.writeRendered(entry.key, level+1)
		e.sb.WriteString(": ")
		if entry.rendered {
			e.writeRendered(entry.value, level+1)
		} else {
			e.emit(entry.val, level+1)
		}
		e.sb.WriteByte(',')
	}
	e.newline(level)
	e.sb.WriteByte('}')
}

func (e *emitter) emitOrderedMapping(n node, level int) {
	entries, err := protect(func() []Entry {
		return n.v.Interface().(EntryLister).SnapshotEntries()
	})
	if err != nil {
		e.emitUnrenderable(n, err)
		return
	}
	done, ok := e.enterChildren(n, entries)
	if !ok {
		return
	}
	defer done()

	e.sb.WriteString(n.tag)
	if len(entries) == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteByte('{')
	for _, entry := range entries {
		e.newline(level + 1)
		e.emit(reflect.ValueOf(entry.Key), level+1)
		e.sb.WriteString(": ")
		e.emit(reflect.ValueOf(entry.Value), level+1)
		e.sb.WriteByte(',')
	}
	e.newline(level)
	e.sb.WriteByte('}')
}

// emitRecord writes Name(a=..., b=...) with fields in declared order.
func (e *emitter) emitRecord(n node, level int) {
	rec, err := protect(func() Record {
		return n.v.Interface().(Recorder).SnapshotRecord()
	})
	if err != nil {
		e.emitUnrenderable(n, err)
		return
	}
	done, ok := e.enterChildren(n, rec.Fields)
	if !ok {
		return
	}
	defer done()

	name := rec.Name
	if name == "" {
		name = n.tag
	}
	e.sb.WriteString(name)
	if len(rec.Fields) == 0 {
		e.sb.WriteString("()")
		return
	}
	e.sb.WriteByte('(')
	for _, f := range rec.Fields {
		e.newline(level + 1)
		e.sb.WriteString(f.Name)
		e.sb.WriteByte('=')
		e.emit(reflect.ValueOf(f.Value), level+1)
		e.sb.WriteByte(',')
	}
	e.newline(level)
	e.sb.WriteByte(')')
}

// objectField is a named child of an object, reflected or described.
type objectField struct {
	name string
	val  reflect.Value
}

// emitObject writes Type{A: ..., B: ...} with fields sorted by name.
func (e *emitter) emitObject(n node, level int) {
	var fields []objectField
	if n.v.Kind() == reflect.Struct && !n.v.Type().Implements(describerType) {
		fields = structFields(n.v)
	} else {
		described, err := protect(func() []Field {
			return n.v.Interface().(Describer).SnapshotFields()
		})
		if err != nil {
			e.emitUnrenderable(n, err)
			return
		}
		done, ok := e.enterChildren(n, described)
		if !ok {
			return
		}
		defer done()
		fields = describedFields(described)
	}

	e.sb.WriteString(n.tag)
	if len(fields) == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteByte('{')
	for _, f := range fields {
		e.newline(level + 1)
		e.sb.WriteString(f.name)
		e.sb.WriteString(": ")
		e.emit(f.val, level+1)
		e.sb.WriteByte(',')
	}
	e.newline(level)
	e.sb.WriteByte('}')
}

func structFields(v reflect.Value) []objectField {
	t := v.Type()
	fields := lo.Map(exportedFields(t), func(i int, _ int) objectField {
		return objectField{name: t.Field(i).Name, val: v.Field(i)}
	})
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].name < fields[j].name
	})
	return fields
}

func describedFields(described []Field) []objectField {
	public := lo.Filter(described, func(f Field, _ int) bool {
		return !strings.HasPrefix(f.Name, "_")
	})
	fields := lo.Map(public, func(f Field, _ int) objectField {
		return objectField{name: f.Name, val: reflect.ValueOf(f.Value)}
	})
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].name < fields[j].name
	})
	return fields
}

// ============================================================
// Recovery
// ============================================================

// protect runs fn and turns a panic into an error.
func protect[T any](fn func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(), nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.WithStack(err)
	}
	return errors.Newf("%v", r)
}
