package stream

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Writer writes snapshot documents to an io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter creates a new document writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the serializer line that starts a document.
//
// Format:
//
//	# serializer: <name>\n
func (w *Writer) WriteHeader(serializer string) error {
	if serializer == "" {
		serializer = DefaultSerializer
	}
	if strings.ContainsAny(serializer, "\r\n") {
		return errors.Newf("invalid serializer name %q", serializer)
	}
	if _, err := io.WriteString(w.w, marker(MarkerHeader, serializer)+"\n"); err != nil {
		return errors.Wrap(err, "write header")
	}
	return nil
}

// WriteBlock writes one named block.
//
// Format:
//
//	# name: <name>\n
//	  <body line>\n     (one per line, empty lines stay empty)
//	# ---\n
func (w *Writer) WriteBlock(b *Block) error {
	if err := validateName(b.Name); err != nil {
		return err
	}

	var sb strings.Builder
	sb.Grow(len(b.Body) + len(b.Name) + 32)
	sb.WriteString(marker(MarkerName, b.Name))
	sb.WriteByte('\n')
	if b.Body != "" {
		for _, line := range strings.Split(b.Body, "\n") {
			if line != "" {
				sb.WriteString(Indent)
				sb.WriteString(line)
			}
			sb.WriteByte('\n')
		}
	}
	sb.WriteString(marker(MarkerDivider, ""))
	sb.WriteByte('\n')

	if _, err := io.WriteString(w.w, sb.String()); err != nil {
		return errors.Wrapf(err, "write block %q", b.Name)
	}
	return nil
}

// WriteAll writes a header followed by every block.
func WriteAll(w io.Writer, serializer string, blocks []*Block) error {
	dw := NewWriter(w)
	if err := dw.WriteHeader(serializer); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := dw.WriteBlock(b); err != nil {
			return err
		}
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.New("block name is empty")
	case strings.ContainsAny(name, "\r\n"):
		return errors.Newf("block name %q contains a line break", name)
	case strings.TrimSpace(name) != name:
		return errors.Newf("block name %q has surrounding spaces", name)
	}
	return nil
}
