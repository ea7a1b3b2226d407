// Package stream implements snapshot documents: named blocks of serialized
// text framed by line markers.
//
// A document provides:
//   - A header naming the serializer that produced it
//   - Named blocks, in the order they were captured
//   - Integrity via per-block BLAKE3 digests
//
// Layout:
//
//	# serializer: snapshot/v1
//	# name: TestUser
//	  snapshot.User{
//	    Name: "ann",
//	  }
//	# ---
//
// Block bodies are indented by one unit, so a body line can never be read
// as a marker.
package stream

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Markers.
const (
	MarkerPrefix  = "# "
	MarkerHeader  = "serializer:"
	MarkerName    = "name:"
	MarkerDivider = "---"
)

// Indent is the unit every body line is prefixed with.
const Indent = "  "

// DefaultSerializer is written in the header when none is given.
const DefaultSerializer = "snapshot/v1"

// MaxBlockSize is the default maximum body size (64 MiB).
const MaxBlockSize = 64 * 1024 * 1024

// Block is one named snapshot.
type Block struct {
	Name string
	Body string
}

// Document is a parsed snapshot file.
type Document struct {
	Serializer string
	Blocks     []*Block
}

// Find returns the block with the given name.
func (d *Document) Find(name string) (*Block, bool) {
	return lo.Find(d.Blocks, func(b *Block) bool {
		return b.Name == name
	})
}

// Names returns the block names in document order.
func (d *Document) Names() []string {
	return lo.Map(d.Blocks, func(b *Block, _ int) string {
		return b.Name
	})
}

// ParseError reports malformed document input.
type ParseError struct {
	Reason string
	Line   int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("snapshot document: %s at line %d", e.Reason, e.Line)
	}
	return fmt.Sprintf("snapshot document: %s", e.Reason)
}

func marker(kind, value string) string {
	if value == "" {
		return MarkerPrefix + kind
	}
	return MarkerPrefix + kind + " " + value
}

func isMarker(line string) bool {
	return strings.HasPrefix(line, MarkerPrefix) || line == strings.TrimSpace(MarkerPrefix)
}
