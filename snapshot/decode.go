package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ============================================================
// Scalar Decoding
// ============================================================
//
// The text forms written by the serializer are lossless. DecodeText and
// DecodeBytes invert them for a scalar rendered at depth 0, which is how
// stored snapshots are checked for fidelity.

// ErrNotText is returned when the input is not a text scalar.
var ErrNotText = errors.New("not a text scalar")

// DecodeError reports malformed scalar text.
type DecodeError struct {
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at line %d: %s", e.Line, e.Message)
}

// DecodeText returns the string a text scalar was serialized from. Both the
// quoted form and the block form are accepted, optionally wrapped in a type
// tag such as pkg.Name("...").
func DecodeText(s string) (string, error) {
	return DecodeTextIndent(s, DefaultOptions().Indent)
}

// DecodeTextIndent is DecodeText for text written with a custom indent unit.
func DecodeTextIndent(s, indent string) (string, error) {
	inner := stripTag(s)
	switch {
	case strings.HasPrefix(inner, blockQuote+"\n"):
		return decodeBlock(inner, indent)
	case strings.HasPrefix(inner, `"`):
		return unquoteString(inner)
	}
	return "", errors.Wrapf(ErrNotText, "%.20q", s)
}

// DecodeBytes returns the bytes a []byte scalar was serialized from.
func DecodeBytes(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "[]byte(") || !strings.HasSuffix(s, ")") {
		return nil, errors.Wrapf(ErrNotText, "%.20q", s)
	}
	text, err := unquoteString(s[len("[]byte(") : len(s)-1])
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// stripTag removes a Tag( ... ) wrapper around a quoted or block scalar.
func stripTag(s string) string {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") || strings.ContainsAny(s[:open], "\"\n") {
		return s
	}
	inner := s[open+1 : len(s)-1]
	if !strings.HasPrefix(inner, `"`) {
		return s
	}
	return inner
}

func decodeBlock(s, indent string) (string, error) {
	lines := strings.Split(s, "\n")
	last := len(lines) - 1
	if last < 1 || lines[last] != blockQuote {
		return "", &DecodeError{Line: len(lines), Message: "unterminated text block"}
	}

	out := make([]string, 0, last-1)
	for i, line := range lines[1:last] {
		if line == "" {
			out = append(out, "")
			continue
		}
		if !strings.HasPrefix(line, indent) {
			return "", &DecodeError{Line: i + 2, Message: "block line is not indented"}
		}
		text, err := unescapeBlockLine(line[len(indent):])
		if err != nil {
			return "", &DecodeError{Line: i + 2, Message: err.Error()}
		}
		out = append(out, text)
	}
	return strings.Join(out, "\n"), nil
}

func unescapeBlockLine(line string) (string, error) {
	if !strings.Contains(line, `\`) {
		return line, nil
	}
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); i++ {
		if line[i] != '\\' {
			b.WriteByte(line[i])
			continue
		}
		if i+1 >= len(line) {
			return "", errors.New("dangling escape")
		}
		switch line[i+1] {
		case '\\':
			b.WriteByte('\\')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", errors.Newf("unknown escape \\%c", line[i+1])
		}
		i++
	}
	return b.String(), nil
}

// unquoteString inverts quoteString.
func unquoteString(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", &DecodeError{Line: 1, Message: "invalid quoted string"}
	}

	inner := s[1 : len(s)-1]
	var b strings.Builder
	b.Grow(len(inner))

	for i := 0; i < len(inner); i++ {
		if inner[i] != '\\' {
			b.WriteByte(inner[i])
			continue
		}
		if i+1 >= len(inner) {
			return "", &DecodeError{Line: 1, Message: "unterminated escape in string"}
		}

		next := inner[i+1]
		switch next {
		case '\\':
			b.WriteByte('\\')
			i++
		case '"':
			b.WriteByte('"')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'x':
			if i+3 >= len(inner) {
				return "", &DecodeError{Line: 1, Message: "invalid byte escape"}
			}
			v, err := strconv.ParseUint(inner[i+2:i+4], 16, 8)
			if err != nil {
				return "", &DecodeError{Line: 1, Message: "invalid byte escape: " + inner[i+2:i+4]}
			}
			b.WriteByte(byte(v))
			i += 3
		case 'u':
			if i+5 >= len(inner) {
				return "", &DecodeError{Line: 1, Message: "invalid unicode escape"}
			}
			hexStr := inner[i+2 : i+6]
			v, err := strconv.ParseUint(hexStr, 16, 16)
			if err != nil {
				return "", &DecodeError{Line: 1, Message: "invalid unicode escape: " + hexStr}
			}
			b.WriteRune(rune(v))
			i += 5
		default:
			return "", &DecodeError{Line: 1, Message: fmt.Sprintf("unknown escape \\%c", next)}
		}
	}

	return b.String(), nil
}
