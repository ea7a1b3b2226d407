package snapshot

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// Options configures the serializer.
type Options struct {
	// Indent is the unit written once per nesting level (default: "  ").
	Indent string

	// MaxDepth bounds the nesting of composites; deeper values are written
	// as a <max depth T> placeholder (default: 99).
	MaxDepth int

	// Logger receives debug events for values that had to be degraded to a
	// placeholder (default: no-op).
	Logger *zap.Logger
}

// DefaultOptions returns the options used by Serialize.
func DefaultOptions() Options {
	return Options{
		Indent:   "  ",
		MaxDepth: 99,
		Logger:   zap.NewNop(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Indent == "" {
		o.Indent = d.Indent
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// Serialize returns the canonical snapshot text of v.
//
// The text is a pure function of v's structure: maps and sets are written
// in canonical order, struct fields alphabetically, and references back to
// an ancestor as a <cycle T> marker. Serialize never panics; values that
// cannot be introspected are written as placeholders.
func Serialize(v any) string {
	return SerializeWithOptions(v, DefaultOptions())
}

// SerializeWithOptions returns the canonical snapshot text of v using opts.
// Every call starts from a fresh cycle guard and buffer, so calls are
// independent and safe to run concurrently.
func SerializeWithOptions(v any, opts Options) (out string) {
	opts = opts.withDefaults()
	e := newEmitter(opts)

	defer func() {
		if r := recover(); r != nil {
			err := panicError(r)
			opts.Logger.Warn("serializer recovered from panic",
				zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))
			out = "<unrenderable " + fmt.Sprintf("%T", v) + ": " + quoteString(err.Error()) + ">"
		}
	}()

	e.emit(reflect.ValueOf(v), 0)
	return e.sb.String()
}

// Fingerprint returns the hex BLAKE3 digest of v's snapshot text. Equal
// fingerprints mean byte-identical snapshots.
func Fingerprint(v any) string {
	sum := blake3.Sum256([]byte(Serialize(v)))
	return hex.EncodeToString(sum[:])
}
