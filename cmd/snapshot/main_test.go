package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDump_Formats(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		args []string
		want string
	}{
		{
			name: "json",
			file: "in.json",
			data: `{"b": [1, 2.5], "a": "x"}`,
			want: "map[string]interface {}{\n  \"a\": \"x\",\n  \"b\": []interface {}{\n    int64(1),\n    float64(2.5),\n  },\n}\n",
		},
		{
			name: "json ordered",
			file: "in.json",
			data: `{"b": [1, 2.5], "a": "x"}`,
			args: []string{"--ordered"},
			want: "snapshot.OrderedMap{\n  \"b\": []interface {}{\n    int64(1),\n    float64(2.5),\n  },\n  \"a\": \"x\",\n}\n",
		},
		{
			name: "yaml",
			file: "in.yaml",
			data: "b: 1\na: [x, y]\n",
			want: "map[string]interface {}{\n  \"a\": []interface {}{\n    \"x\",\n    \"y\",\n  },\n  \"b\": int(1),\n}\n",
		},
		{
			name: "yaml ordered",
			file: "in.yml",
			data: "b: 1\na: true\n",
			args: []string{"--ordered"},
			want: "snapshot.OrderedMap{\n  \"b\": int(1),\n  \"a\": true,\n}\n",
		},
		{
			name: "toml",
			file: "in.toml",
			data: "b = 1\na = \"x\"\n",
			want: "map[string]interface {}{\n  \"a\": \"x\",\n  \"b\": int64(1),\n}\n",
		},
		{
			name: "format flag overrides extension",
			file: "in.txt",
			data: "a: 1\n",
			args: []string{"--format", "yaml"},
			want: "map[string]interface {}{\n  \"a\": int(1),\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, []byte(tt.data))
			args := append([]string{"dump"}, tt.args...)
			out, _, err := run(t, "", append(args, path)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDump_Stdin(t *testing.T) {
	out, _, err := run(t, `[3.5]`, "dump")
	require.NoError(t, err)
	assert.Equal(t, "[]interface {}{\n  float64(3.5),\n}\n", out)
}

func TestDump_Zstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(`{"k": "line 1\nline 2"}`), nil)
	require.NoError(t, enc.Close())

	path := writeFile(t, "in.json.zst", compressed)
	out, _, err := run(t, "", "dump", path)
	require.NoError(t, err)
	want := "map[string]interface {}{\n  \"k\": \"\"\"\n    line 1\n    line 2\n  \"\"\",\n}\n"
	assert.Equal(t, want, out)
}

func TestDump_EnvConfig(t *testing.T) {
	t.Setenv("SNAPSHOT_INDENT", "    ")
	out, _, err := run(t, `[1]`, "dump")
	require.NoError(t, err)
	assert.Equal(t, "[]interface {}{\n    int64(1),\n}\n", out)

	t.Setenv("SNAPSHOT_INDENT", "x")
	_, _, err = run(t, `[1]`, "dump")
	assert.Error(t, err)
}

func TestDump_VerboseLogsToStderr(t *testing.T) {
	_, errOut, err := run(t, `{}`, "dump", "-v")
	require.NoError(t, err)
	assert.Contains(t, errOut, "input decoded")
}

func TestDump_Errors(t *testing.T) {
	_, _, err := run(t, `{not json`, "dump")
	assert.Error(t, err)

	_, _, err = run(t, "", "dump", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeFile(t, "in.toml", []byte("a = 1\n"))
	_, _, err = run(t, "", "dump", "--ordered", path)
	assert.Error(t, err)
}

func TestDocumentCommands(t *testing.T) {
	src := writeFile(t, "in.json", []byte(`{"a": 1}`))
	doc, _, err := run(t, "", "dump", "--name", "TestDump", src)
	require.NoError(t, err)

	want := strings.Join([]string{
		"# serializer: snapshot/v1",
		"# name: TestDump",
		"  map[string]interface {}{",
		"    \"a\": int64(1),",
		"  }",
		"# ---",
		"",
	}, "\n")
	require.Equal(t, want, doc)

	docPath := writeFile(t, "doc.ambr", []byte(doc))

	out, _, err := run(t, "", "blocks", docPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TestDump  "), out)
	assert.Contains(t, out, "  3\n")

	out, _, err = run(t, "", "show", docPath, "TestDump")
	require.NoError(t, err)
	assert.Equal(t, "map[string]interface {}{\n  \"a\": int64(1),\n}\n", out)

	_, _, err = run(t, "", "show", docPath, "TestOther")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "snapshot "+libVersion)
	assert.Contains(t, out, formatVersion)
}

func TestDump_OrderedYAMLAliases(t *testing.T) {
	path := writeFile(t, "shared.yaml", []byte("base: &b\n  x: 1\nuse: *b\n"))
	out, _, err := run(t, "", "dump", "--ordered", path)
	require.NoError(t, err)
	want := "snapshot.OrderedMap{\n  \"base\": snapshot.OrderedMap{\n    \"x\": int(1),\n  },\n  \"use\": snapshot.OrderedMap{\n    \"x\": int(1),\n  },\n}\n"
	assert.Equal(t, want, out)
}

func TestDump_OrderedYAMLSelfReference(t *testing.T) {
	path := writeFile(t, "self.yaml", []byte("a: &x\n  b: *x\n"))
	_, _, err := run(t, "", "dump", "--ordered", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains itself")
}

func TestDecodeYAMLOrdered_AliasExpansionLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("l0: &l0 [lol, lol, lol, lol, lol, lol, lol, lol, lol, lol]\n")
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&sb, "l%d: &l%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "*l%d", i-1)
		}
		sb.WriteString("]\n")
	}

	_, err := decodeInput(strings.NewReader(sb.String()), formatYAML, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias expansions")
}
