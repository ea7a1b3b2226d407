package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/snapshot/snapshot"
)

// Input formats.
const (
	formatAuto = "auto"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

// openInput opens path, or stdin for "" and "-". Files ending in .zst are
// decompressed transparently.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	if filepath.Ext(path) != ".zst" {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "zstd reader")
	}
	return &zstdFile{Decoder: dec, f: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// detectFormat picks the input format from the file extension, ignoring
// a trailing .zst. Unknown extensions and stdin default to JSON.
func detectFormat(path string) string {
	path = strings.TrimSuffix(path, ".zst")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".toml":
		return formatTOML
	}
	return formatJSON
}

// decodeInput parses r in the given format. With ordered, mappings keep
// their document order (JSON and YAML only).
func decodeInput(r io.Reader, format string, ordered bool) (any, error) {
	switch format {
	case formatJSON:
		if ordered {
			return decodeJSONOrdered(r)
		}
		return decodeJSON(r)
	case formatYAML:
		if ordered {
			return decodeYAMLOrdered(r)
		}
		return decodeYAML(r)
	case formatTOML:
		if ordered {
			return nil, errors.New("--ordered is not supported for TOML input")
		}
		return decodeTOML(r)
	}
	return nil, errors.Newf("unknown format %q", format)
}

// ============================================================
// JSON
// ============================================================

func decodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	return normalizeJSON(v), nil
}

// normalizeJSON turns json.Number into int64 where exact, float64 otherwise.
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		return jsonNumber(x)
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeJSON(e)
		}
	case []any:
		for i, e := range x {
			x[i] = normalizeJSON(e)
		}
	}
	return v
}

func jsonNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func decodeJSONOrdered(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := readJSONValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	return v, nil
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := snapshot.NewOrderedMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(keyTok.(string), val)
			}
			_, err := dec.Token()
			return m, err
		case '[':
			items := []any{}
			for dec.More() {
				val, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, val)
			}
			_, err := dec.Token()
			return items, err
		}
		return nil, errors.Newf("unexpected delimiter %v", t)
	case json.Number:
		return jsonNumber(t), nil
	}
	return tok, nil
}

// ============================================================
// YAML
// ============================================================

func decodeYAML(r io.Reader) (any, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "decode yaml")
	}
	return v, nil
}

func decodeYAMLOrdered(r io.Reader) (any, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "decode yaml")
	}
	w := &yamlWalker{active: make(map[*yaml.Node]bool)}
	v, err := w.value(&doc)
	if err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	return v, nil
}

// Limits on alias expansion, so documents whose aliases expand
// exponentially are rejected instead of exhausting memory.
const (
	maxYAMLAliases = 10000
	maxYAMLNodes   = 1 << 22
)

// yamlWalker converts a yaml.Node tree into values with ordered mappings.
// active holds the nodes on the current path; an alias back into it is a
// cycle.
type yamlWalker struct {
	active  map[*yaml.Node]bool
	aliases int
	nodes   int
}

func (w *yamlWalker) value(n *yaml.Node) (any, error) {
	w.nodes++
	if w.nodes > maxYAMLNodes {
		return nil, errors.Newf("document expands to more than %d nodes", maxYAMLNodes)
	}
	if w.active[n] {
		return nil, errors.Newf("anchor %q at line %d contains itself", n.Anchor, n.Line)
	}
	w.active[n] = true
	defer delete(w.active, n)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return w.value(n.Content[0])
	case yaml.AliasNode:
		w.aliases++
		if w.aliases > maxYAMLAliases {
			return nil, errors.Newf("more than %d alias expansions", maxYAMLAliases)
		}
		if n.Alias == nil {
			return nil, errors.Newf("unknown anchor %q at line %d", n.Value, n.Line)
		}
		return w.value(n.Alias)
	case yaml.MappingNode:
		m := snapshot.NewOrderedMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := w.value(n.Content[i])
			if err != nil {
				return nil, err
			}
			val, err := w.value(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			if key != nil && !reflect.TypeOf(key).Comparable() {
				key = snapshot.Serialize(key)
			}
			m.Set(key, val)
		}
		return m, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := w.value(c)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return items, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, errors.Wrapf(err, "yaml line %d", n.Line)
	}
	return v, nil
}

// ============================================================
// TOML
// ============================================================

func decodeTOML(r io.Reader) (any, error) {
	var v map[string]any
	if _, err := toml.NewDecoder(r).Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decode toml")
	}
	return v, nil
}
