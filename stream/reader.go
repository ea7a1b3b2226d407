package stream

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Reader reads snapshot documents from an io.Reader.
type Reader struct {
	r        *bufio.Reader
	line     int
	header   string
	maxBlock int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxBlockSize sets the maximum body size of a block (default: 64 MiB).
func WithMaxBlockSize(max int) ReaderOption {
	return func(r *Reader) {
		r.maxBlock = max
	}
}

// NewReader creates a new document reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:        bufio.NewReader(r),
		maxBlock: MaxBlockSize,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Header returns the serializer named by the document header, or "" if
// none has been read yet.
func (r *Reader) Header() string {
	return r.header
}

// Next reads and returns the next block.
// Returns io.EOF when no more blocks are available.
func (r *Reader) Next() (*Block, error) {
	var (
		block *Block
		body  []string
		size  int
	)

	for {
		line, err := r.readLine()
		if err == io.EOF {
			if block != nil {
				return nil, &ParseError{Reason: "unterminated block " + block.Name, Line: r.line}
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read line %d", r.line+1)
		}

		if block == nil {
			if err := r.readOutside(line, &block); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case line == marker(MarkerDivider, ""):
			block.Body = strings.Join(body, "\n")
			return block, nil
		case isMarker(line):
			return nil, &ParseError{Reason: "unterminated block " + block.Name, Line: r.line}
		case line == "":
			body = append(body, "")
		case strings.HasPrefix(line, Indent):
			body = append(body, line[len(Indent):])
			size += len(line) - len(Indent) + 1
		default:
			return nil, &ParseError{Reason: "block line is not indented", Line: r.line}
		}

		if size > r.maxBlock {
			return nil, &ParseError{Reason: "block too large: " + block.Name, Line: r.line}
		}
	}
}

// readOutside handles a line between blocks: blank lines are skipped, the
// header is recorded and a name marker opens a block.
func (r *Reader) readOutside(line string, block **Block) error {
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, MarkerPrefix+MarkerHeader):
		r.header = strings.TrimSpace(strings.TrimPrefix(line, MarkerPrefix+MarkerHeader))
		return nil
	case strings.HasPrefix(line, MarkerPrefix+MarkerName):
		name := strings.TrimSpace(strings.TrimPrefix(line, MarkerPrefix+MarkerName))
		if name == "" {
			return &ParseError{Reason: "block name is empty", Line: r.line}
		}
		*block = &Block{Name: name}
		return nil
	}
	return &ParseError{Reason: "expected " + marker(MarkerName, "<name>"), Line: r.line}
}

// readLine returns the next line without its '\n'. A final line without a
// newline is returned as is.
func (r *Reader) readLine() (string, error) {
	line, err := r.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			r.line++
			return line, nil
		}
		return "", err
	}
	r.line++
	return strings.TrimSuffix(line, "\n"), nil
}

// ReadAll reads all blocks until EOF.
func (r *Reader) ReadAll() ([]*Block, error) {
	var blocks []*Block
	for {
		block, err := r.Next()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, block)
	}
}

// ReadAll reads a whole document. Block names must be unique.
func ReadAll(r io.Reader, opts ...ReaderOption) (*Document, error) {
	reader := NewReader(r, opts...)
	blocks, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if seen[b.Name] {
			return nil, &ParseError{Reason: "duplicate block " + b.Name}
		}
		seen[b.Name] = true
	}
	return &Document{Serializer: reader.Header(), Blocks: blocks}, nil
}
