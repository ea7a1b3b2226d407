package snapshot

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ============================================================
// Canonical Scalar Encoding
// ============================================================

const (
	nullText   = "nil"
	blockQuote = `"""`
)

// canonInt returns the decimal form of n.
func canonInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// canonUint returns the decimal form of n.
func canonUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// canonFloat returns the shortest round-trip form of f for the given bit
// size. Finite values always carry a '.' or an exponent so they never read
// as integers; -0 becomes 0.0.
func canonFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case f == 0:
		return "0.0"
	}

	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// canonComplex returns the parenthesized form of c, e.g. (1+2i).
func canonComplex(c complex128, bits int) string {
	return strconv.FormatComplex(c, 'g', -1, bits)
}

// isMultiline reports whether s must be written as a text block.
func isMultiline(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// ============================================================
// String Quoting
// ============================================================

// quoteString returns a double-quoted string with minimal escapes. Bytes
// that are not valid UTF-8 are written as \xNN so the text stays lossless.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			writeHexByte(&b, s[i])
			i++
			continue
		}
		i += size

		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\u00`)
				hex := strconv.FormatInt(int64(r), 16)
				if len(hex) == 1 {
					b.WriteByte('0')
				}
				b.WriteString(strings.ToUpper(hex))
			} else {
				b.WriteRune(r)
			}
		}
	}

	b.WriteByte('"')
	return b.String()
}

func writeHexByte(b *strings.Builder, c byte) {
	const hextable = "0123456789abcdef"
	b.WriteString(`\x`)
	b.WriteByte(hextable[c>>4])
	b.WriteByte(hextable[c&0x0f])
}

// escapeBlockLine escapes one line of a text block. Only the backslash and
// the carriage return are escaped; everything else is written verbatim.
func escapeBlockLine(line string) string {
	if !strings.ContainsAny(line, "\\\r") {
		return line
	}
	var b strings.Builder
	b.Grow(len(line) + 4)
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			b.WriteString(`\\`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(line[i])
		}
	}
	return b.String()
}

// ============================================================
// Re-indentation
// ============================================================

// reindent shifts every non-empty line after the first by prefix. Text
// rendered at depth 0 becomes text at the depth prefix stands for; empty
// lines inside text blocks stay empty.
func reindent(text, prefix string) string {
	if prefix == "" || !strings.Contains(text, "\n") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(prefix)*strings.Count(text, "\n"))
	for i := 0; i < len(text); i++ {
		b.WriteByte(text[i])
		if text[i] == '\n' && i+1 < len(text) && text[i+1] != '\n' {
			b.WriteString(prefix)
		}
	}
	return b.String()
}
